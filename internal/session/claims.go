package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/apierr"
	"storefront/internal/entity"
)

// authError carries the message shown to the user and unwraps to
// apierr.ErrUnauthenticated so the classifier treats it as an auth failure.
type authError struct {
	msg string
}

func (e *authError) Error() string { return e.msg }

func (e *authError) Unwrap() error { return apierr.ErrUnauthenticated }

var (
	ErrNoToken         error = &authError{"No authentication token received"}
	ErrTokenInvalid    error = &authError{"Invalid authentication token"}
	ErrTokenExpired    error = &authError{"Authentication token has expired"}
	ErrTokenIncomplete error = &authError{"Invalid token structure - missing required fields"}
	ErrNoSession       error = &authError{"session not found"}
)

// Claims are the fields the backend puts in its tokens. The subject is the username.
type Claims struct {
	UserID int    `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Username() string {
	return c.Subject
}

func (c *Claims) Profile() Profile {
	role, err := entity.ParseRole(c.Role)
	if err != nil {
		role = entity.Role(strings.ToUpper(c.Role))
	}
	return Profile{ID: c.UserID, Username: c.Subject, Email: c.Email, Role: role}
}

// Expiry returns the token expiry, or the zero time when the token has none.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// DecodeToken reads the claims of a backend token without checking the
// signature. Only use it on tokens the backend itself returned.
func DecodeToken(raw string, now time.Time) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		logger.Warn().Err(err).Msg("failed to decode token")
		return nil, ErrTokenInvalid
	}
	if err := checkClaims(claims, now); err != nil {
		return nil, err
	}
	return claims, nil
}

func checkClaims(c *Claims, now time.Time) error {
	if exp := c.Expiry(); !exp.IsZero() && exp.Before(now) {
		return ErrTokenExpired
	}
	if c.UserID == 0 || c.Subject == "" || c.Role == "" {
		return ErrTokenIncomplete
	}
	return nil
}

// Decoder optionally verifies HS256 signatures when the gateway shares the
// backend's signing key. With no key it behaves like DecodeToken.
type Decoder struct {
	Key []byte
	Now func() time.Time
}

func (d Decoder) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Decoder) Decode(raw string) (*Claims, error) {
	if len(d.Key) == 0 {
		return DecodeToken(raw, d.now())
	}

	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, ErrNoToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return d.Key, nil
	}, jwt.WithTimeFunc(d.now), jwt.WithExpirationRequired())
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		logger.Warn().Err(err).Msg("token rejected")
		return nil, ErrTokenInvalid
	}
	if err := checkClaims(claims, d.now()); err != nil {
		return nil, err
	}
	return claims, nil
}
