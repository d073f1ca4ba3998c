package reconcile

import (
	"strings"
	"time"

	"github.com/geodesk/atlasfx/internal/config"
	countrydomain "github.com/geodesk/atlasfx/internal/country/domain"
	"github.com/geodesk/atlasfx/internal/fetch"
	"go.uber.org/fx"
)

// Engine joins fetched country records with exchange rates and derives the
// currency and GDP fields for each row. It owns no storage: the output batch
// is handed to the persistence layer and discarded after one refresh.
type Engine struct {
	src  Source
	conf func() config.EstimatorConfig
}

func NewEngine(src Source, conf func() config.EstimatorConfig) *Engine {
	return &Engine{src: src, conf: conf}
}

type Params struct {
	fx.In

	Src    Source
	Holder *config.EstimatorConfigHolder
}

func New(p Params) *Engine {
	return NewEngine(p.Src, p.Holder.Get)
}

var Module = fx.Module("reconcile",
	fx.Provide(NewSource),
	fx.Provide(New),
)

// Build produces one upsert row per fetched country, preserving input order.
// Every row shares the same timestamp so a refresh is observably atomic in
// time. Rows are never dropped for missing optional data; only records
// without a name are skipped since they cannot be keyed.
//
// Per row:
//   - currency code is the first entry of the currency list, absent when the
//     list is empty or the code is blank;
//   - a present code with a non-zero rate yields exchange_rate plus
//     estimated_gdp = population * multiplier / rate, multiplier drawn
//     uniformly from the configured bounds per row;
//   - a present code with no usable rate leaves both fields absent;
//   - an absent code leaves the rate absent and pins estimated_gdp to zero.
func (e *Engine) Build(countries []fetch.Country, rates map[string]float64, now time.Time) []countrydomain.Country {
	cfg := e.conf()
	batch := make([]countrydomain.Country, 0, len(countries))

	for _, c := range countries {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}

		population := c.Population
		if population < 0 {
			population = 0
		}

		row := countrydomain.Country{
			Name:            name,
			Capital:         optional(c.Capital),
			Region:          optional(c.Region),
			Population:      population,
			FlagURL:         optional(c.Flag),
			LastRefreshedAt: &now,
		}

		code := firstCurrencyCode(c.Currencies)
		switch {
		case code == "":
			row.EstimatedGDP = ptr(0.0)
		default:
			row.CurrencyCode = &code
			if rate, ok := rates[code]; ok && rate != 0 {
				multiplier := cfg.MultiplierMin + e.src.Float64()*(cfg.MultiplierMax-cfg.MultiplierMin)
				row.ExchangeRate = ptr(rate)
				row.EstimatedGDP = ptr(float64(population) * multiplier / rate)
			}
		}

		batch = append(batch, row)
	}

	return batch
}

func firstCurrencyCode(currencies []fetch.Currency) string {
	if len(currencies) == 0 {
		return ""
	}
	return strings.TrimSpace(currencies[0].Code)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func ptr(v float64) *float64 {
	return &v
}
