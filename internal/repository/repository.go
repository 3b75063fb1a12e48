package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/entity"
	"storefront/internal/sharding"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewNotificationRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *NotificationRepository {
	return &NotificationRepository{dbShards, router}
}

func (r *NotificationRepository) shardFor(userID int) *sql.DB {
	return r.dbShards[r.router.GetShard(userID)]
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `INSERT INTO notifications (id, user_id, level, category, title, message, dismissed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	db := r.shardFor(n.UserID)
	_, err := db.ExecContext(ctx, query, n.ID, n.UserID, n.Level, n.Category, n.Title, n.Message, n.Dismissed, n.CreatedAt)
	return err
}

// ListActive returns the user's undismissed notifications, newest first.
func (r *NotificationRepository) ListActive(ctx context.Context, userID, limit int) ([]entity.Notification, error) {
	query := `SELECT id, user_id, level, category, title, message, dismissed, created_at FROM notifications WHERE user_id = ? AND dismissed = FALSE ORDER BY created_at DESC LIMIT ?`

	rows, err := r.shardFor(userID).QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Notification
	for rows.Next() {
		var n entity.Notification
		var level string
		if err := rows.Scan(&n.ID, &n.UserID, &level, &n.Category, &n.Title, &n.Message, &n.Dismissed, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Level = entity.NotificationLevel(level)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) Dismiss(ctx context.Context, userID int, id string) error {
	query := `UPDATE notifications SET dismissed = TRUE WHERE id = ? AND user_id = ?`

	res, err := r.shardFor(userID).ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	}
	return nil
}

func (r *NotificationRepository) DismissAll(ctx context.Context, userID int) (int64, error) {
	query := `UPDATE notifications SET dismissed = TRUE WHERE user_id = ? AND dismissed = FALSE`

	res, err := r.shardFor(userID).ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Purge deletes dismissed notifications older than cutoff on every shard.
func (r *NotificationRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE dismissed = TRUE AND created_at < ?`

	var total int64
	for _, shard := range r.router.All() {
		db := r.dbShards[shard]

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return total, err
		}
		res, err := tx.ExecContext(ctx, query, cutoff)
		if err != nil {
			tx.Rollback()
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return total, err
		}
		if err := tx.Commit(); err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
