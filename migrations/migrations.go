package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

// AutoMigrateNotifications creates the notifications table on every shard,
// retrying while a shard is still starting up.
func AutoMigrateNotifications(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS notifications (
			id CHAR(36) PRIMARY KEY,
			user_id INT NOT NULL,
			level VARCHAR(16) NOT NULL,
			category VARCHAR(32) NOT NULL,
			title VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			dismissed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME(3) NOT NULL,
			INDEX idx_notifications_user (user_id, dismissed, created_at)
		);
	`
	for i, db := range dbs {
		_, err := db.Exec(query)
		for attempt := 0; err != nil && attempt < retries; attempt++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
		}
		if err != nil {
			return fmt.Errorf("migrate notifications on shard %d: %w", i, err)
		}
	}
	return nil
}
