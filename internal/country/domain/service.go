package domain

import (
	"context"
	"errors"
	"strings"
)

// SortMode restricts the list ordering to the supported modes.
type SortMode string

const (
	SortNameAsc SortMode = "name_asc"
	SortGDPDesc SortMode = "gdp_desc"
	SortGDPAsc  SortMode = "gdp_asc"
)

// ParseSortMode validates a raw query value. Empty selects the default
// name-ascending order; anything outside the fixed set is a validation
// failure that must be rejected before storage is touched.
func ParseSortMode(raw string) (SortMode, error) {
	switch strings.TrimSpace(raw) {
	case "", string(SortNameAsc):
		return SortNameAsc, nil
	case string(SortGDPDesc):
		return SortGDPDesc, nil
	case string(SortGDPAsc):
		return SortGDPAsc, nil
	default:
		return "", ErrInvalidSort
	}
}

type ListRequest struct {
	Region   string
	Currency string
	Sort     SortMode
}

type Service interface {
	// Refresh fetches both external datasets, reconciles them and applies
	// the batch plus the status row in one transaction.
	Refresh(ctx context.Context) (RefreshResult, error)
	List(ctx context.Context, req ListRequest) ([]Country, error)
	GetByName(ctx context.Context, name string) (Country, error)
	// DeleteByName removes the matched row, then recounts into the status
	// row as an independent second step.
	DeleteByName(ctx context.Context, name string) error
}

var (
	ErrNotFound    = errors.New("not_found")
	ErrInvalidSort = errors.New("invalid_sort")
	ErrInvalidName = errors.New("invalid_name")
)
