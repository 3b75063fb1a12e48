// Package mutate applies a change locally, commits it to the backend and
// then replaces the local value with the server's.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// ErrReconcile means the backend accepted the change but the follow-up read
// failed, so the returned value is the optimistic one.
var ErrReconcile = errors.New("change saved but could not be reloaded")

// Mutation describes one change. Optimistic must not modify its argument;
// it returns the locally expected value or an error when the change is not
// allowed. Commit sends the change. Refetch reads the authoritative value;
// when nil, the value returned by Commit is used instead. OnChange, if set,
// observes every value the caller should display.
type Mutation[T any] struct {
	Name       string
	Optimistic func(current T) (T, error)
	Commit     func(ctx context.Context, optimistic T) (T, error)
	Refetch    func(ctx context.Context) (T, error)
	OnChange   func(T)
}

func (m Mutation[T]) publish(v T) {
	if m.OnChange != nil {
		m.OnChange(v)
	}
}

// Run executes m against current. The returned value is always the one to
// display, including on error.
func Run[T any](ctx context.Context, current T, m Mutation[T]) (T, error) {
	snapshot := current

	optimistic := current
	if m.Optimistic != nil {
		next, err := m.Optimistic(current)
		if err != nil {
			return snapshot, err
		}
		optimistic = next
	}
	m.publish(optimistic)

	committed, err := m.Commit(ctx, optimistic)
	if err != nil {
		logger.Warn().Err(err).Msgf("%s rejected, reverting", m.Name)
		authoritative := snapshot
		if m.Refetch != nil {
			fresh, rerr := m.Refetch(ctx)
			if rerr != nil {
				logger.Error().Err(rerr).Msgf("refetch after failed %s", m.Name)
				err = errors.Join(err, rerr)
			} else {
				authoritative = fresh
			}
		}
		m.publish(authoritative)
		return authoritative, err
	}

	if m.Refetch == nil {
		m.publish(committed)
		return committed, nil
	}
	fresh, err := m.Refetch(ctx)
	if err != nil {
		logger.Warn().Err(err).Msgf("refetch after %s failed, keeping local state", m.Name)
		return optimistic, fmt.Errorf("%w: %w", ErrReconcile, err)
	}
	m.publish(fresh)
	return fresh, nil
}
