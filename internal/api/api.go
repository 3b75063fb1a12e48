package api

import (
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"storefront/internal/apierr"
	"storefront/internal/listing"
	"storefront/internal/service"
	"storefront/internal/session"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// actor is who the request acts for. Anonymous requests get the zero Actor,
// which is treated as a shopper.
func actor(c echo.Context) service.Actor {
	s, ok := session.Current(c)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{UserID: s.User.ID, Username: s.User.Username, Role: s.User.Role}
}

func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apierr.Invalid(name, "Invalid ID")
	}
	return id, nil
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apierr.Invalid("body", "Invalid request payload")
	}
	return nil
}

func listQuery(c echo.Context, base listing.Query) (listing.Query, error) {
	return listing.FromValues(base, c.QueryParams())
}

type listBody[T any] struct {
	Items    []T               `json:"items"`
	Page     listing.PageInfo  `json:"page"`
	Controls listing.Controls  `json:"controls"`
	View     map[string]string `json:"view"`
}

// view is the query state the browser echoes back on its next request,
// including the fingerprint that resets the page after a filter change.
func view(q listing.Query) map[string]string {
	return flatten(q.Values())
}

func flatten(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}

func listJSON[T any](c echo.Context, l *service.List[T]) error {
	return c.JSON(http.StatusOK, listBody[T]{Items: l.Items, Page: l.Page, Controls: l.Controls, View: view(l.Query)})
}

func Health(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": name,
			"time":    time.Now().Format(time.RFC3339),
		})
	}
}
