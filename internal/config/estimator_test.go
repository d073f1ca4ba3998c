package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEstimatorConfig(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	assert.Equal(t, 1000.0, cfg.MultiplierMin)
	assert.Equal(t, 2000.0, cfg.MultiplierMax)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, "cache", cfg.CacheDir)
	require.NoError(t, validateEstimatorConfig(cfg))
}

func TestValidateEstimatorConfig(t *testing.T) {
	base := DefaultEstimatorConfig()

	bad := base
	bad.MultiplierMin = 0
	assert.Error(t, validateEstimatorConfig(bad))

	bad = base
	bad.MultiplierMax = base.MultiplierMin
	assert.Error(t, validateEstimatorConfig(bad))

	bad = base
	bad.TopN = 0
	assert.Error(t, validateEstimatorConfig(bad))

	bad = base
	bad.CacheDir = "  "
	assert.Error(t, validateEstimatorConfig(bad))
}

func TestStaticHolderRejectsInvalidConfig(t *testing.T) {
	_, err := NewStaticEstimatorConfigHolder(EstimatorConfig{})
	require.Error(t, err)

	holder, err := NewStaticEstimatorConfigHolder(DefaultEstimatorConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultEstimatorConfig(), holder.Get())
}
