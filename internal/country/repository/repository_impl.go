package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/geodesk/atlasfx/internal/country/domain"
	"gorm.io/gorm"
)

type repo struct {
	genID *snowflake.Node
}

func Provide(genID *snowflake.Node) domain.Repository {
	return &repo{genID: genID}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, row *domain.Country) error {
	var existing struct {
		ID snowflake.ID `gorm:"column:id"`
	}
	err := db.WithContext(ctx).
		Raw(`SELECT id FROM countries WHERE LOWER(name) = LOWER(?)`, row.Name).
		Scan(&existing).Error
	if err != nil {
		return err
	}

	if existing.ID == 0 {
		row.ID = r.genID.Generate()
		return db.WithContext(ctx).Exec(
			`INSERT INTO countries (id, name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID,
			row.Name,
			row.Capital,
			row.Region,
			row.Population,
			row.CurrencyCode,
			row.ExchangeRate,
			row.EstimatedGDP,
			row.FlagURL,
			row.LastRefreshedAt,
		).Error
	}

	row.ID = existing.ID
	return db.WithContext(ctx).Exec(
		`UPDATE countries
		 SET name = ?, capital = ?, region = ?, population = ?, currency_code = ?, exchange_rate = ?, estimated_gdp = ?, flag_url = ?, last_refreshed_at = ?
		 WHERE id = ?`,
		row.Name,
		row.Capital,
		row.Region,
		row.Population,
		row.CurrencyCode,
		row.ExchangeRate,
		row.EstimatedGDP,
		row.FlagURL,
		row.LastRefreshedAt,
		row.ID,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Country, error) {
	var countries []domain.Country
	stmt := db.WithContext(ctx).Model(&domain.Country{})
	if filter.Region != "" {
		stmt = stmt.Where("LOWER(region) = LOWER(?)", filter.Region)
	}
	if filter.Currency != "" {
		stmt = stmt.Where("LOWER(currency_code) = LOWER(?)", filter.Currency)
	}

	// Boolean null-ranking keeps NULL estimates last on every dialect.
	switch filter.Sort {
	case domain.SortGDPDesc:
		stmt = stmt.Order("(estimated_gdp IS NULL), estimated_gdp DESC, name ASC")
	case domain.SortGDPAsc:
		stmt = stmt.Order("(estimated_gdp IS NULL), estimated_gdp ASC, name ASC")
	default:
		stmt = stmt.Order("name ASC")
	}

	if err := stmt.Find(&countries).Error; err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Country, error) {
	var country domain.Country
	err := db.WithContext(ctx).
		Raw(`SELECT id, name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at
		     FROM countries WHERE LOWER(name) = LOWER(?)`, name).
		Scan(&country).Error
	if err != nil {
		return nil, err
	}
	if country.ID == 0 {
		return nil, nil
	}
	return &country, nil
}

func (r *repo) DeleteByName(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM countries WHERE LOWER(name) = LOWER(?)`, name)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Country{}).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) TopByGDP(ctx context.Context, db *gorm.DB, limit int) ([]domain.Country, error) {
	var countries []domain.Country
	err := db.WithContext(ctx).
		Raw(`SELECT id, name, currency_code, estimated_gdp
		     FROM countries
		     WHERE estimated_gdp IS NOT NULL
		     ORDER BY estimated_gdp DESC, name ASC
		     LIMIT ?`, limit).
		Scan(&countries).Error
	if err != nil {
		return nil, err
	}
	return countries, nil
}
