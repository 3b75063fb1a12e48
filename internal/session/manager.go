package session

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"

	"storefront/internal/client"
	"storefront/internal/entity"
)

const DefaultProvider = "google"

// Authenticator exchanges credentials for a token. *client.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.LoginResponse, error)
}

// OAuth2Error is a failed provider callback. Message is what the user sees.
type OAuth2Error struct {
	Code    string
	Message string
}

func (e *OAuth2Error) Error() string { return e.Message }

func (e *OAuth2Error) Unwrap() error { return ErrNoSession }

var oauth2Messages = map[string]string{
	"oauth2_failed":           "OAuth2 authentication failed. Please try again.",
	"no_email":                "Unable to retrieve email from OAuth2 provider. Please ensure email permission is granted.",
	"user_creation_failed":    "Failed to create user account. Please try again or contact support.",
	"token_generation_failed": "Failed to generate authentication token. Please try again.",
	"invalid_provider":        "Invalid OAuth2 provider. Please use a supported authentication method.",
	"access_denied":           "Access was denied. Please grant necessary permissions to continue.",
	"server_error":            "Server error occurred during authentication. Please try again later.",
}

func OAuth2Message(code string) string {
	if msg, ok := oauth2Messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred. Please try again."
}

// DashboardFor is where a user lands after signing in.
func DashboardFor(role entity.Role) string {
	if role.Matches(entity.RoleAdmin) {
		return "/admin/dashboard"
	}
	return "/customer/dashboard"
}

type Manager struct {
	store Store
	auth  Authenticator
	ttl   time.Duration
	now   func() time.Time
	newID func() string
	key   []byte
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSigningKey makes the manager verify HS256 token signatures. Without it
// only tokens returned by the backend login are accepted.
func WithSigningKey(key []byte) Option {
	return func(m *Manager) { m.key = key }
}

func NewManager(store Store, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		auth:  auth,
		ttl:   24 * time.Hour,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hydrate loads the session with the given id. Legacy profiles are rewritten
// with their id in place; sessions without a user id or with an expired
// token are removed.
func (m *Manager) Hydrate(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.User.ID == 0 && s.User.LegacyUserID != 0 {
		s.User.ID = s.User.LegacyUserID
		s.User.LegacyUserID = 0
		if err := m.store.Save(ctx, s, m.ttl); err != nil {
			return nil, err
		}
		logger.Info().Msgf("Migrated legacy profile for user %d", s.User.ID)
	}

	if s.User.ID == 0 {
		logger.Warn().Msgf("Clearing session %s without a user id", id)
		return nil, m.clear(ctx, id, ErrNoSession)
	}
	if s.Expired(m.now()) {
		logger.Info().Msgf("Clearing expired session %s", id)
		return nil, m.clear(ctx, id, ErrTokenExpired)
	}
	return s, nil
}

func (m *Manager) decode(token string) (*Claims, error) {
	return Decoder{Key: m.key, Now: m.now}.Decode(token)
}

// verify decodes a token handed in by the caller rather than by the backend.
// Its claims are only trusted with a valid signature.
func (m *Manager) verify(token string) (*Claims, error) {
	if len(m.key) == 0 {
		if _, err := DecodeToken(token, m.now()); err != nil {
			return nil, err
		}
		logger.Warn().Msg("Rejecting caller token: no signing key configured")
		return nil, ErrTokenInvalid
	}
	return m.decode(token)
}

func (m *Manager) clear(ctx context.Context, id string, cause error) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	resp, err := m.auth.Login(ctx, client.LoginRequest{Username: username, Password: password})
	if err != nil {
		logger.Warn().Err(err).Msgf("Login failed for %s", username)
		return nil, err
	}

	claims, err := m.decode(resp.Token)
	if err != nil {
		return nil, err
	}
	s := m.newSession(resp.Token, claims, "")
	if s.ExpiresAt.IsZero() && resp.ExpiresIn > 0 {
		s.ExpiresAt = s.CreatedAt.Add(time.Duration(resp.ExpiresIn) * time.Millisecond)
	}
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return nil, err
	}
	logger.Info().Msgf("User %s signed in", s.User.Username)
	return s, nil
}

// FromToken starts a session for a token obtained elsewhere, such as an
// API caller's bearer token. The signature must verify.
func (m *Manager) FromToken(token string) (*Session, error) {
	claims, err := m.verify(token)
	if err != nil {
		return nil, err
	}
	return m.newSession(token, claims, ""), nil
}

// CompleteOAuth2 handles the provider redirect. On success it returns the
// new session and the dashboard to send the user to.
func (m *Manager) CompleteOAuth2(ctx context.Context, params url.Values) (*Session, string, error) {
	if code := params.Get("error"); code != "" {
		logger.Warn().Msgf("OAuth2 callback failed with %s", code)
		return nil, "", &OAuth2Error{Code: code, Message: OAuth2Message(code)}
	}

	claims, err := m.verify(params.Get("token"))
	if err != nil {
		return nil, "", err
	}
	provider := params.Get("provider")
	if provider == "" {
		provider = DefaultProvider
	}

	s := m.newSession(params.Get("token"), claims, provider)
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return nil, "", err
	}
	logger.Info().Msgf("User %s signed in with %s", s.User.Username, provider)
	return s, DashboardFor(s.User.Role), nil
}

func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

func (m *Manager) newSession(token string, claims *Claims, provider string) *Session {
	now := m.now()
	return &Session{
		ID:        m.newID(),
		Token:     token,
		User:      claims.Profile(),
		Provider:  provider,
		ExpiresAt: claims.Expiry(),
		CreatedAt: now,
	}
}
