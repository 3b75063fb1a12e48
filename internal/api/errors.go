package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/apierr"
	"storefront/internal/entity"
	"storefront/internal/session"
)

var categoryStatus = map[apierr.Category]int{
	apierr.CategoryValidation:        http.StatusBadRequest,
	apierr.CategoryNotFound:          http.StatusNotFound,
	apierr.CategoryUnauthorized:      http.StatusUnauthorized,
	apierr.CategoryForbidden:         http.StatusForbidden,
	apierr.CategoryDuplicate:         http.StatusConflict,
	apierr.CategoryInsufficientStock: http.StatusConflict,
	apierr.CategoryInvalidTransition: http.StatusConflict,
	apierr.CategoryNetwork:           http.StatusBadGateway,
	apierr.CategoryRateLimited:       http.StatusTooManyRequests,
}

func statusFor(c apierr.Classification) int {
	if code, ok := categoryStatus[c.Category]; ok {
		return code
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Category    apierr.Category   `json:"category"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
	Retry       bool              `json:"retry,omitempty"`
	Current     any               `json:"current,omitempty"`
}

// Recorder keeps failures that are not shown inline as notifications.
type Recorder interface {
	Record(ctx context.Context, userID int, title string, c apierr.Classification) (*entity.Notification, error)
}

// Responder turns any error into the classified JSON error response.
type Responder struct {
	notes  Recorder
	cookie string
}

func NewResponder(notes Recorder, cookieName string) *Responder {
	return &Responder{notes: notes, cookie: cookieName}
}

func (r *Responder) fail(c echo.Context, title string, err error) error {
	return r.respond(c, title, err, false, nil)
}

func (r *Responder) failList(c echo.Context, title string, err error) error {
	return r.respond(c, title, err, true, nil)
}

// failWith also returns the state the view should now show, e.g. the
// server's copy of an order after a rejected transition.
func (r *Responder) failWith(c echo.Context, title string, err error, current any) error {
	return r.respond(c, title, err, false, current)
}

func (r *Responder) respond(c echo.Context, title string, err error, listLoad bool, current any) error {
	cl := apierr.Classify(err)
	p := apierr.Present(cl, listLoad)
	code := statusFor(cl)
	if code >= http.StatusInternalServerError {
		logger.Error().Err(err).Msgf("%s %s: %s", c.Request().Method, c.Path(), title)
	}

	if p.ClearSession {
		if s, ok := session.Current(c); ok {
			logger.Info().Msgf("Dropping session %s after %s", s.ID, cl.Category)
		}
		session.ClearCookie(c, r.cookie)
	}
	if p.Notify && r.notes != nil {
		if s, ok := session.Current(c); ok {
			if _, nerr := r.notes.Record(c.Request().Context(), s.User.ID, title, cl); nerr != nil {
				logger.Warn().Err(nerr).Msg("Error recording notification")
			}
		}
	}

	return c.JSON(code, errorBody{
		Category:    cl.Category,
		Message:     cl.Message,
		FieldErrors: cl.Fields,
		Redirect:    p.Redirect,
		Retry:       p.Retry,
		Current:     current,
	})
}
