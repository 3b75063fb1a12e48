package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"storefront/internal/apierr"
	"storefront/internal/client"
	"storefront/internal/entity"
	"storefront/internal/session"
)

type Registrar interface {
	Register(ctx context.Context, req client.RegisterRequest) (*entity.User, error)
}

type AuthHandler struct {
	*Responder
	sessions  *session.Manager
	registrar Registrar
	cookie    string
}

func NewAuthHandler(r *Responder, sessions *session.Manager, registrar Registrar, cookieName string) *AuthHandler {
	return &AuthHandler{Responder: r, sessions: sessions, registrar: registrar, cookie: cookieName}
}

type loginResponse struct {
	User      session.Profile `json:"user"`
	Redirect  string          `json:"redirect"`
	ExpiresAt string          `json:"expiresAt,omitempty"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req client.LoginRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Sign in failed", err)
	}
	if strings.TrimSpace(req.Username) == "" {
		return h.fail(c, "Sign in failed", apierr.Invalid("username", "Username is required"))
	}
	if req.Password == "" {
		return h.fail(c, "Sign in failed", apierr.Invalid("password", "Password is required"))
	}

	s, err := h.sessions.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.fail(c, "Sign in failed", err)
	}
	session.SetCookie(c, h.cookie, s)
	resp := loginResponse{User: s.User, Redirect: session.DashboardFor(s.User.Role)}
	if !s.ExpiresAt.IsZero() {
		resp.ExpiresAt = s.ExpiresAt.UTC().Format(http.TimeFormat)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req client.RegisterRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, "Registration failed", err)
	}
	switch {
	case strings.TrimSpace(req.Username) == "":
		return h.fail(c, "Registration failed", apierr.Invalid("username", "Username is required"))
	case !strings.Contains(req.Email, "@"):
		return h.fail(c, "Registration failed", apierr.Invalid("email", "Email should be valid"))
	case len(req.Password) < 6:
		return h.fail(c, "Registration failed", apierr.Invalid("password", "Password must be at least 6 characters"))
	}
	// self-registration always creates shoppers
	req.Role = entity.RoleCustomer

	user, err := h.registrar.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "Registration failed", err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Logout drops the server-side session. There is no backend call; the
// token simply stops being presented.
func (h *AuthHandler) Logout(c echo.Context) error {
	if s, ok := session.Current(c); ok {
		if err := h.sessions.Logout(c.Request().Context(), s.ID); err != nil {
			logger.Warn().Err(err).Msgf("Error deleting session %s", s.ID)
		}
	}
	session.ClearCookie(c, h.cookie)
	return c.JSON(http.StatusOK, map[string]string{"redirect": session.LoginPath})
}

func (h *AuthHandler) Me(c echo.Context) error {
	s, ok := session.Current(c)
	if !ok {
		return h.fail(c, "Session", session.ErrNoSession)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":      s.User,
		"provider":  s.Provider,
		"expiresAt": s.ExpiresAt,
		"dashboard": session.DashboardFor(s.User.Role),
	})
}

// OAuth2Callback completes a provider sign-in and redirects to the
// dashboard, or back to the login page with a readable error.
func (h *AuthHandler) OAuth2Callback(c echo.Context) error {
	s, dest, err := h.sessions.CompleteOAuth2(c.Request().Context(), c.QueryParams())
	if err != nil {
		msg := session.OAuth2Message("")
		var oerr *session.OAuth2Error
		cl := apierr.Classify(err)
		switch {
		case errors.As(err, &oerr):
			msg = oerr.Message
		case cl.Category == apierr.CategoryUnauthorized:
			msg = cl.Message
		}
		return c.Redirect(http.StatusFound, session.LoginPath+"?"+url.Values{"error": {msg}}.Encode())
	}
	session.SetCookie(c, h.cookie, s)
	return c.Redirect(http.StatusFound, dest)
}

// Authenticated rejects API requests that carry no session with 401.
func (h *AuthHandler) Authenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := session.Current(c); !ok {
			return h.fail(c, "Session", session.ErrNoSession)
		}
		return next(c)
	}
}
