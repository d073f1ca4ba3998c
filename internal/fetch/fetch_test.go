package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geodesk/atlasfx/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(countriesURL, ratesURL string, timeout time.Duration) Source {
	return New(Params{
		Cfg: config.Config{
			CountriesAPIURL: countriesURL,
			ExchangeAPIURL:  ratesURL,
			FetchTimeout:    timeout,
		},
		Log: zap.NewNop(),
	})
}

func TestFetchCountries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name":"Japan","capital":"Tokyo","region":"Asia","population":125000000,
			 "flag":"https://flagcdn.com/jp.svg",
			 "currencies":[{"code":"JPY","name":"Japanese yen","symbol":"¥"}]},
			{"name":"Atlantis","population":1000}
		]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL, 5*time.Second)

	countries, err := client.FetchCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "Japan", countries[0].Name)
	assert.Equal(t, int64(125000000), countries[0].Population)
	require.Len(t, countries[0].Currencies, 1)
	assert.Equal(t, "JPY", countries[0].Currencies[0].Code)
	assert.Empty(t, countries[1].Currencies)
}

func TestFetchExchangeRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","rates":{"USD":1,"JPY":147.5}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL, 5*time.Second)

	rates, err := client.FetchExchangeRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 147.5, rates["JPY"])
	assert.Equal(t, 1.0, rates["USD"])
}

func TestFetchNon200IsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL, 5*time.Second)

	_, err := client.FetchCountries(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)

	_, err = client.FetchExchangeRates(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestFetchTimeoutIsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL, 20*time.Millisecond)

	_, err := client.FetchCountries(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestFetchMalformedBodyIsUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL, 5*time.Second)

	_, err := client.FetchCountries(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}
