package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geodesk/atlasfx/internal/config"
	obsmetrics "github.com/geodesk/atlasfx/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrUpstreamUnavailable marks any failed or timed-out external fetch.
// Either source failing aborts the whole refresh before storage is touched.
var ErrUpstreamUnavailable = errors.New("upstream_unavailable")

// Currency is one entry of a country's currency list as reported upstream.
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Country is a raw country record as reported upstream.
type Country struct {
	Name       string     `json:"name"`
	Capital    string     `json:"capital"`
	Region     string     `json:"region"`
	Population int64      `json:"population"`
	Flag       string     `json:"flag"`
	Currencies []Currency `json:"currencies"`
}

// Source retrieves the two external datasets. Both calls are independent:
// no shared state, no retries, one bounded attempt each.
type Source interface {
	FetchCountries(ctx context.Context) ([]Country, error)
	FetchExchangeRates(ctx context.Context) (map[string]float64, error)
}

type Client struct {
	countriesURL string
	ratesURL     string
	client       *http.Client
	log          *zap.Logger
	metrics      *obsmetrics.Metrics
}

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func New(p Params) Source {
	timeout := p.Cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		countriesURL: p.Cfg.CountriesAPIURL,
		ratesURL:     p.Cfg.ExchangeAPIURL,
		client:       &http.Client{Timeout: timeout},
		log:          p.Log.Named("fetch"),
		metrics:      p.Metrics,
	}
}

var Module = fx.Module("fetch",
	fx.Provide(New),
)

func (c *Client) FetchCountries(ctx context.Context) ([]Country, error) {
	var countries []Country
	if err := c.getJSON(ctx, "countries", c.countriesURL, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

func (c *Client) FetchExchangeRates(ctx context.Context) (map[string]float64, error) {
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, "exchange_rates", c.ratesURL, &payload); err != nil {
		return nil, err
	}
	if payload.Rates == nil {
		payload.Rates = map[string]float64{}
	}
	return payload.Rates, nil
}

func (c *Client) getJSON(ctx context.Context, source, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return c.fail(ctx, source, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.fail(ctx, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(ctx, source, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(ctx, source, err)
	}

	c.metrics.RecordUpstreamFetch(ctx, source, "ok")
	return nil
}

func (c *Client) fail(ctx context.Context, source string, err error) error {
	c.metrics.RecordUpstreamFetch(ctx, source, "error")
	c.log.Warn("upstream fetch failed",
		zap.String("source", source),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, source, err)
}
