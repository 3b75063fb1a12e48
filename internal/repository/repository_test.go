package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/entity"
	"storefront/internal/sharding"
)

func newShards(t *testing.T, n int) ([]*sql.DB, []sqlmock.Sqlmock) {
	t.Helper()
	dbs := make([]*sql.DB, n)
	mocks := make([]sqlmock.Sqlmock, n)
	for i := range dbs {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		dbs[i], mocks[i] = db, mock
	}
	return dbs, mocks
}

func TestCreate_RoutesByUser(t *testing.T) {
	dbs, mocks := newShards(t, 2)
	repo := NewNotificationRepository(dbs, sharding.NewShardRouter(2))
	n := &entity.Notification{
		ID: "n-1", UserID: 3, Level: entity.LevelError, Category: "insufficient_stock",
		Title: "Checkout failed", Message: "Insufficient stock", CreatedAt: time.Now(),
	}

	mocks[1].ExpectExec("INSERT INTO notifications").
		WithArgs("n-1", 3, "error", "insufficient_stock", "Checkout failed", "Insufficient stock", false, n.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), n))
	assert.NoError(t, mocks[0].ExpectationsWereMet())
	assert.NoError(t, mocks[1].ExpectationsWereMet())
}

func TestListActive(t *testing.T) {
	dbs, mocks := newShards(t, 1)
	repo := NewNotificationRepository(dbs, sharding.NewShardRouter(1))
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "level", "category", "title", "message", "dismissed", "created_at"}).
		AddRow("n-2", 3, "warning", "network", "Offline", "Check your connection", false, created)
	mocks[0].ExpectQuery("SELECT (.+) FROM notifications WHERE user_id = \\? AND dismissed = FALSE").
		WithArgs(3, 20).
		WillReturnRows(rows)

	got, err := repo.ListActive(context.Background(), 3, 20)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entity.LevelWarning, got[0].Level)
	assert.Equal(t, created, got[0].CreatedAt)
	assert.NoError(t, mocks[0].ExpectationsWereMet())
}

func TestDismiss(t *testing.T) {
	dbs, mocks := newShards(t, 1)
	repo := NewNotificationRepository(dbs, sharding.NewShardRouter(1))

	mocks[0].ExpectExec("UPDATE notifications SET dismissed = TRUE").
		WithArgs("n-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mocks[0].ExpectExec("UPDATE notifications SET dismissed = TRUE").
		WithArgs("n-9", 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Dismiss(context.Background(), 3, "n-1"))
	assert.ErrorIs(t, repo.Dismiss(context.Background(), 3, "n-9"), ErrNotificationNotFound)
	assert.NoError(t, mocks[0].ExpectationsWereMet())
}

func TestPurge_FansOutToEveryShard(t *testing.T) {
	dbs, mocks := newShards(t, 2)
	repo := NewNotificationRepository(dbs, sharding.NewShardRouter(2))
	cutoff := time.Now()

	for i, mock := range mocks {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM notifications").
			WithArgs(cutoff).
			WillReturnResult(sqlmock.NewResult(0, int64(i+1)))
		mock.ExpectCommit()
	}

	n, err := repo.Purge(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	for _, mock := range mocks {
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}
