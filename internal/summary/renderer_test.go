package summary

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/geodesk/atlasfx/internal/config"
	countrydomain "github.com/geodesk/atlasfx/internal/country/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRenderer(t *testing.T) Renderer {
	t.Helper()
	dir := t.TempDir()
	conf := func() config.EstimatorConfig {
		cfg := config.DefaultEstimatorConfig()
		cfg.CacheDir = dir
		return cfg
	}
	return NewRenderer(conf, zap.NewNop())
}

func gdp(v float64) *float64 { return &v }

func code(v string) *string { return &v }

func TestRenderWritesDecodablePNG(t *testing.T) {
	r := newTestRenderer(t)

	top := []countrydomain.Country{
		{Name: "Japan", CurrencyCode: code("JPY"), EstimatedGDP: gdp(1.27e12)},
		{Name: "Germany", CurrencyCode: code("EUR"), EstimatedGDP: gdp(1.1e12)},
		{Name: "Atlantis", EstimatedGDP: gdp(0)},
	}
	require.NoError(t, r.Render(250, top, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	f, err := os.Open(r.ImagePath())
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 800, bounds.Dx())
	assert.Equal(t, 600, bounds.Dy())
}

func TestRenderOverwritesPreviousImage(t *testing.T) {
	r := newTestRenderer(t)

	require.NoError(t, r.Render(1, nil, time.Now().UTC()))
	first, err := os.Stat(r.ImagePath())
	require.NoError(t, err)

	require.NoError(t, r.Render(2, []countrydomain.Country{
		{Name: "Japan", EstimatedGDP: gdp(100)},
	}, time.Now().UTC()))
	second, err := os.Stat(r.ImagePath())
	require.NoError(t, err)

	// Same well-known path, fresh content.
	assert.Equal(t, first.Name(), second.Name())
}

func TestImagePathIsStable(t *testing.T) {
	r := newTestRenderer(t)
	assert.Equal(t, "summary.png", filepath.Base(r.ImagePath()))
	assert.Equal(t, r.ImagePath(), r.ImagePath())
}
