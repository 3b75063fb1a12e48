package session

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"storefront/internal/entity"
)

const LoginPath = "/login"

// contextKey is where echo handlers find the current *Session.
const contextKey = "session"

// Current returns the session attached to the request, if any.
func Current(c echo.Context) (*Session, bool) {
	s, ok := c.Get(contextKey).(*Session)
	return s, ok && s != nil
}

func attach(c echo.Context, s *Session) {
	c.Set(contextKey, s)
	c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), s)))
}

// Middleware restores the session named by the cookie. Stale cookies are
// expired; requests without a session pass through unauthenticated.
func Middleware(m *Manager, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			s, err := m.Hydrate(c.Request().Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, ErrNoSession) && !errors.Is(err, ErrTokenExpired) {
					logger.Error().Err(err).Msg("Error restoring session")
				}
				ClearCookie(c, cookieName)
				return next(c)
			}
			attach(c, s)
			return next(c)
		}
	}
}

// BearerAuth accepts "Authorization: Bearer <token>" from API callers that
// do not hold a session cookie. A missing header is not an error; a bad
// token is answered with 401.
func BearerAuth(m *Manager) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper: func(c echo.Context) bool {
			_, ok := Current(c)
			return ok
		},
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return m.FromToken(auth)
		},
		SuccessHandler: func(c echo.Context) {
			if s, ok := c.Get("user").(*Session); ok {
				attach(c, s)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extraction *echojwt.TokenExtractionError
			if errors.As(err, &extraction) {
				return nil
			}
			msg := ErrTokenInvalid.Error()
			var ae *authError
			if errors.As(err, &ae) {
				msg = ae.msg
			}
			return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(err)
		},
		ContinueOnIgnoredError: true,
	})
}

// RequireRole lets through sessions whose role matches, case-insensitively.
// Everyone else is sent to the login page.
func RequireRole(role entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := Current(c)
			if !ok || !s.HasRole(role) {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			return next(c)
		}
	}
}

func SetCookie(c echo.Context, name string, s *Session) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.ExpiresAt.IsZero() {
		cookie.Expires = s.ExpiresAt
	}
	c.SetCookie(cookie)
}

func ClearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}
