package status

import (
	"context"
	"errors"
	"time"

	"github.com/geodesk/atlasfx/internal/status/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() domain.Repository {
	return &repository{}
}

func (r *repository) Get(ctx context.Context, db *gorm.DB) (*domain.RefreshStatus, error) {
	var row domain.RefreshStatus
	err := db.WithContext(ctx).
		Raw(`SELECT id, total_countries, last_refreshed_at FROM refresh_status WHERE id = ?`, domain.SingletonID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, errors.New("refresh_status row missing")
	}
	return &row, nil
}

func (r *repository) SetRefreshed(ctx context.Context, db *gorm.DB, total int64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE refresh_status SET total_countries = ?, last_refreshed_at = ? WHERE id = ?`,
		total,
		at,
		domain.SingletonID,
	).Error
}

func (r *repository) SetTotal(ctx context.Context, db *gorm.DB, total int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE refresh_status SET total_countries = ? WHERE id = ?`,
		total,
		domain.SingletonID,
	).Error
}
