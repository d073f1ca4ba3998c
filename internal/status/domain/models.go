package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// SingletonID is the fixed identity of the only refresh_status row. The
// table carries a CHECK constraint so no other id can ever be inserted.
const SingletonID int64 = 1

// RefreshStatus is the singleton aggregate row: how many countries the store
// holds and when the last successful bulk refresh committed. Created once at
// migration time with zero defaults, mutated by every successful refresh and
// delete, never deleted.
type RefreshStatus struct {
	ID              int64      `gorm:"primaryKey" json:"-"`
	TotalCountries  int64      `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

func (RefreshStatus) TableName() string { return "refresh_status" }

type Repository interface {
	Get(ctx context.Context, db *gorm.DB) (*RefreshStatus, error)
	// SetRefreshed records a completed bulk refresh: row count plus the
	// shared refresh timestamp.
	SetRefreshed(ctx context.Context, db *gorm.DB, total int64, at time.Time) error
	// SetTotal updates only the row count (delete recount path).
	SetTotal(ctx context.Context, db *gorm.DB, total int64) error
}

type Service interface {
	Get(ctx context.Context) (RefreshStatus, error)
}
