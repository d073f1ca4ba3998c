package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Upsert inserts the row or overwrites every observed and derived field
	// of the existing row matched by case-normalized name, including
	// replacing previously-set values with NULL. The row keeps its original
	// id across upserts.
	Upsert(ctx context.Context, db *gorm.DB, row *Country) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Country, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Country, error)
	DeleteByName(ctx context.Context, db *gorm.DB, name string) (int64, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	// TopByGDP returns up to limit rows ordered by estimated_gdp descending,
	// rows without an estimate excluded, ties broken by name.
	TopByGDP(ctx context.Context, db *gorm.DB, limit int) ([]Country, error)
}

type ListFilter struct {
	Region   string
	Currency string
	Sort     SortMode
}
