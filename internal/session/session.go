package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"storefront/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Profile is the signed-in user. Older sessions stored the id under
// "userId" only; Manager.Hydrate migrates those.
type Profile struct {
	ID           int         `json:"id"`
	LegacyUserID int         `json:"userId,omitempty"`
	Username     string      `json:"username"`
	Email        string      `json:"email,omitempty"`
	Role         entity.Role `json:"role"`
}

type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      Profile   `json:"user"`
	Provider  string    `json:"provider,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) HasRole(role entity.Role) bool {
	return s != nil && s.User.Role.Matches(role)
}

func (s *Session) IsAdmin() bool {
	return s.HasRole(entity.RoleAdmin)
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON under session:<id>.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error reading session %s", id)
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		logger.Warn().Err(err).Msgf("Dropping unreadable session %s", id)
		_ = r.Delete(ctx, id)
		return nil, ErrNoSession
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if !s.ExpiresAt.IsZero() {
		if left := time.Until(s.ExpiresAt); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return r.Delete(ctx, s.ID)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), raw, ttl).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error saving session %s", s.ID)
		return err
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKey(id)).Err()
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// Token returns the bearer token of the session in ctx. It has the shape
// of client.TokenFunc.
func Token(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.Token
	}
	return ""
}
