package status

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/geodesk/atlasfx/internal/status/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupStatusDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&domain.RefreshStatus{}))
	require.NoError(t, db.Exec(
		`INSERT INTO refresh_status (id, total_countries) VALUES (?, 0)`,
		domain.SingletonID,
	).Error)

	return db
}

func TestStatusStartsAtZero(t *testing.T) {
	db := setupStatusDB(t)
	repo := NewRepository()

	row, err := repo.Get(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, domain.SingletonID, row.ID)
	assert.Equal(t, int64(0), row.TotalCountries)
	assert.Nil(t, row.LastRefreshedAt)
}

func TestSetRefreshedUpdatesCountAndTimestamp(t *testing.T) {
	db := setupStatusDB(t)
	repo := NewRepository()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SetRefreshed(context.Background(), db, 250, at))

	row, err := repo.Get(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(250), row.TotalCountries)
	require.NotNil(t, row.LastRefreshedAt)
	assert.True(t, row.LastRefreshedAt.Equal(at))
}

func TestSetTotalKeepsTimestamp(t *testing.T) {
	db := setupStatusDB(t)
	repo := NewRepository()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SetRefreshed(context.Background(), db, 250, at))
	require.NoError(t, repo.SetTotal(context.Background(), db, 249))

	row, err := repo.Get(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(249), row.TotalCountries)
	require.NotNil(t, row.LastRefreshedAt)
	assert.True(t, row.LastRefreshedAt.Equal(at))
}

func TestServiceGetReturnsRow(t *testing.T) {
	db := setupStatusDB(t)
	repo := NewRepository()
	svc := NewService(Params{DB: db, Log: zap.NewNop(), Repo: repo})

	require.NoError(t, repo.SetRefreshed(context.Background(), db, 3, time.Now().UTC()))

	row, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), row.TotalCountries)
}
