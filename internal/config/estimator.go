package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EstimatorConfig holds the tunables of the GDP estimation and summary output.
type EstimatorConfig struct {
	MultiplierMin float64 `mapstructure:"multiplierMin"`
	MultiplierMax float64 `mapstructure:"multiplierMax"`
	TopN          int     `mapstructure:"topN"`
	CacheDir      string  `mapstructure:"cacheDir"`
}

func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		MultiplierMin: 1000,
		MultiplierMax: 2000,
		TopN:          5,
		CacheDir:      "cache",
	}
}

// EstimatorConfigHolder exposes the current estimator config and hot-reloads
// it when the backing file changes.
type EstimatorConfigHolder struct {
	current atomic.Value // holds EstimatorConfig
}

func NewEstimatorConfigHolder() (*EstimatorConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("estimator")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/atlasfx")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ATLASFX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultEstimatorConfig()
	v.SetDefault("estimator.multiplierMin", defaults.MultiplierMin)
	v.SetDefault("estimator.multiplierMax", defaults.MultiplierMax)
	v.SetDefault("estimator.topN", defaults.TopN)
	v.SetDefault("estimator.cacheDir", defaults.CacheDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg EstimatorConfig
	if err := v.UnmarshalKey("estimator", &cfg); err != nil {
		return nil, err
	}
	if err := validateEstimatorConfig(cfg); err != nil {
		return nil, err
	}

	holder := &EstimatorConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated EstimatorConfig
		if err := v.UnmarshalKey("estimator", &updated); err != nil {
			log.Printf("[estimator-config] reload failed: %v", err)
			return
		}
		if err := validateEstimatorConfig(updated); err != nil {
			log.Printf("[estimator-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[estimator-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticEstimatorConfigHolder wraps a fixed config with no file watching.
func NewStaticEstimatorConfigHolder(cfg EstimatorConfig) (*EstimatorConfigHolder, error) {
	if err := validateEstimatorConfig(cfg); err != nil {
		return nil, err
	}
	holder := &EstimatorConfigHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

func (h *EstimatorConfigHolder) Get() EstimatorConfig {
	return h.current.Load().(EstimatorConfig)
}

func validateEstimatorConfig(cfg EstimatorConfig) error {
	if cfg.MultiplierMin <= 0 || cfg.MultiplierMax <= cfg.MultiplierMin {
		return errors.New("estimator.multiplier bounds must satisfy 0 < min < max")
	}
	if cfg.TopN <= 0 {
		return errors.New("estimator.topN must be positive")
	}
	if strings.TrimSpace(cfg.CacheDir) == "" {
		return errors.New("estimator.cacheDir cannot be empty")
	}
	return nil
}
