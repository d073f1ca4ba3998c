package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Country is the persisted denormalized snapshot of one country joined with
// its exchange rate. Nullable columns are pointers so the JSON output carries
// explicit nulls: the tri-state currency policy distinguishes a priced row
// (rate and gdp set), a known-but-unpriced currency (both nil) and a country
// with no currency at all (rate nil, gdp pointing at exactly zero).
type Country struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"not null;uniqueIndex" json:"name"`
	Capital         *string      `json:"capital"`
	Region          *string      `gorm:"index" json:"region"`
	Population      int64        `gorm:"not null" json:"population"`
	CurrencyCode    *string      `gorm:"index" json:"currency_code"`
	ExchangeRate    *float64     `json:"exchange_rate"`
	EstimatedGDP    *float64     `gorm:"column:estimated_gdp" json:"estimated_gdp"`
	FlagURL         *string      `json:"flag_url"`
	LastRefreshedAt *time.Time   `json:"last_refreshed_at"`
}

func (Country) TableName() string { return "countries" }

// RefreshResult reports one applied refresh.
type RefreshResult struct {
	TotalCountries  int       `json:"total_countries"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}
