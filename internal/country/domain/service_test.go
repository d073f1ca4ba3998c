package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortMode(t *testing.T) {
	mode, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortNameAsc, mode)

	mode, err = ParseSortMode("gdp_desc")
	require.NoError(t, err)
	assert.Equal(t, SortGDPDesc, mode)

	mode, err = ParseSortMode(" gdp_asc ")
	require.NoError(t, err)
	assert.Equal(t, SortGDPAsc, mode)

	_, err = ParseSortMode("population")
	require.ErrorIs(t, err, ErrInvalidSort)

	_, err = ParseSortMode("GDP_DESC")
	require.ErrorIs(t, err, ErrInvalidSort)
}
