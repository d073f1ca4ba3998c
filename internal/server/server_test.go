package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/geodesk/atlasfx/internal/config"
	"github.com/geodesk/atlasfx/internal/country/domain"
	"github.com/geodesk/atlasfx/internal/fetch"
	statusdomain "github.com/geodesk/atlasfx/internal/status/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countryServiceStub struct {
	refreshResult domain.RefreshResult
	refreshErr    error
	listResult    []domain.Country
	listErr       error
	listCalls     int
	getResult     domain.Country
	getErr        error
	deleteErr     error
}

func (s *countryServiceStub) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	return s.refreshResult, s.refreshErr
}

func (s *countryServiceStub) List(ctx context.Context, req domain.ListRequest) ([]domain.Country, error) {
	s.listCalls++
	return s.listResult, s.listErr
}

func (s *countryServiceStub) GetByName(ctx context.Context, name string) (domain.Country, error) {
	return s.getResult, s.getErr
}

func (s *countryServiceStub) DeleteByName(ctx context.Context, name string) error {
	return s.deleteErr
}

type statusServiceStub struct {
	status statusdomain.RefreshStatus
	err    error
}

func (s *statusServiceStub) Get(ctx context.Context) (statusdomain.RefreshStatus, error) {
	return s.status, s.err
}

type rendererStub struct {
	path string
}

func (r *rendererStub) Render(total int64, top []domain.Country, at time.Time) error {
	return nil
}

func (r *rendererStub) ImagePath() string { return r.path }

func newTestServer(countrySvc *countryServiceStub, statusSvc *statusServiceStub, renderer *rendererStub) *Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:        engine,
		Cfg:        config.Config{AppName: "atlasfx", AppVersion: "test"},
		CountrySvc: countrySvc,
		StatusSvc:  statusSvc,
		Renderer:   renderer,
	})
}

func doRequest(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestRefreshCountriesOK(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := newTestServer(&countryServiceStub{
		refreshResult: domain.RefreshResult{TotalCountries: 250, LastRefreshedAt: now},
	}, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodPost, "/countries/refresh")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message         string    `json:"message"`
		TotalCountries  int       `json:"total_countries"`
		LastRefreshedAt time.Time `json:"last_refreshed_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "refresh completed", body.Message)
	assert.Equal(t, 250, body.TotalCountries)
	assert.True(t, body.LastRefreshedAt.Equal(now))
}

func TestRefreshCountriesUpstreamUnavailable(t *testing.T) {
	srv := newTestServer(&countryServiceStub{
		refreshErr: fmt.Errorf("%w: countries", fetch.ErrUpstreamUnavailable),
	}, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodPost, "/countries/refresh")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "service_unavailable", body.Error.Type)
}

func TestListCountriesReturnsBareArray(t *testing.T) {
	name := "Japan"
	rate := 147.5
	stub := &countryServiceStub{
		listResult: []domain.Country{{Name: name, Population: 125000000, ExchangeRate: &rate}},
	}
	srv := newTestServer(stub, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodGet, "/countries?region=Asia")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Japan", body[0]["name"])
	// Nullable columns serialize as explicit nulls.
	val, present := body[0]["estimated_gdp"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestListCountriesEmptyIsEmptyArray(t *testing.T) {
	srv := newTestServer(&countryServiceStub{}, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodGet, "/countries")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestListCountriesInvalidSortRejectedAtBoundary(t *testing.T) {
	stub := &countryServiceStub{}
	srv := newTestServer(stub, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodGet, "/countries?sort=sideways")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Type)
	require.NotEmpty(t, body.Error.Errors)
	assert.Equal(t, "sort", body.Error.Errors[0].Field)

	// The service must never be consulted for an invalid sort.
	assert.Equal(t, 0, stub.listCalls)
}

func TestGetCountryByName(t *testing.T) {
	srv := newTestServer(&countryServiceStub{
		getResult: domain.Country{Name: "Japan", Population: 125000000},
	}, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodGet, "/countries/Japan")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Japan", body["name"])
}

func TestGetCountryByNameNotFound(t *testing.T) {
	srv := newTestServer(&countryServiceStub{
		getErr: domain.ErrNotFound,
	}, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodGet, "/countries/Narnia")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Type)
}

func TestDeleteCountryByName(t *testing.T) {
	srv := newTestServer(&countryServiceStub{}, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodDelete, "/countries/Japan")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "country deleted", body["message"])
}

func TestDeleteCountryByNameNotFound(t *testing.T) {
	srv := newTestServer(&countryServiceStub{deleteErr: domain.ErrNotFound}, &statusServiceStub{}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodDelete, "/countries/Narnia")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := newTestServer(&countryServiceStub{}, &statusServiceStub{
		status: statusdomain.RefreshStatus{ID: 1, TotalCountries: 250, LastRefreshedAt: &now},
	}, &rendererStub{})

	rec := doRequest(t, srv, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(250), body["total_countries"])
	// The singleton id is an implementation detail and never serialized.
	_, present := body["id"]
	assert.False(t, present)
}

func TestGetSummaryImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644))

	srv := newTestServer(&countryServiceStub{}, &statusServiceStub{}, &rendererStub{path: path})

	rec := doRequest(t, srv, http.MethodGet, "/countries/image")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestGetSummaryImageMissing(t *testing.T) {
	srv := newTestServer(&countryServiceStub{}, &statusServiceStub{}, &rendererStub{
		path: filepath.Join(t.TempDir(), "summary.png"),
	})

	rec := doRequest(t, srv, http.MethodGet, "/countries/image")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
