package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/storm-nowcast-service/internal/adapter/http"
	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockNowcasts struct {
	nowcast domain.Nowcast
	ok      bool
}

func (m *mockNowcasts) LatestNowcast() (domain.Nowcast, bool) { return m.nowcast, m.ok }

func newTestServer(readyErr error, nowcasts *mockNowcasts) *httpadapter.Server {
	if nowcasts == nil {
		nowcasts = &mockNowcasts{}
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, nowcasts, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("no cycle yet"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no cycle yet", body["error"])
}

func TestNowcastReturnsLatestCycle(t *testing.T) {
	nowcasts := &mockNowcasts{
		nowcast: domain.Nowcast{
			UpdatedAt: time.Date(2026, time.May, 4, 21, 30, 0, 0, time.UTC),
			Threshold: 6.0,
			MinPixels: 12,
			Objects: []domain.StormObject{
				{ID: "S01", Lat: 35.21, Lon: -97.44, AreaKm2: 312.5, MaxComposite: 9.1},
			},
			DissipatedIDs: []string{"S03"},
		},
		ok: true,
	}
	srv := newTestServer(nil, nowcasts)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nowcast", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body domain.Nowcast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Objects, 1)
	assert.Equal(t, "S01", body.Objects[0].ID)
	assert.Equal(t, []string{"S03"}, body.DissipatedIDs)
}

func TestNowcastReturns404BeforeFirstCycle(t *testing.T) {
	srv := newTestServer(nil, &mockNowcasts{ok: false})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nowcast", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
