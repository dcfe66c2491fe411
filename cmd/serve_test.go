package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milltech-erp/procure-cli/internal/monitoring"
	"github.com/milltech-erp/procure-cli/internal/store"
)

func newServeTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestBuildRouter_HealthEndpoint(t *testing.T) {
	router := buildRouter(&appEnv{}, 24)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildRouter_ProcessAccepted_NilEngine(t *testing.T) {
	// With no wired engine the goroutine skips the run gracefully.
	router := buildRouter(&appEnv{}, 24)

	req := httptest.NewRequest(http.MethodPost, "/companies/co-1/process", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "co-1", resp["company_id"])

	// Give the goroutine time to hit the nil check.
	time.Sleep(10 * time.Millisecond)
}

func TestBuildRouter_RemindersAccepted_NilScheduler(t *testing.T) {
	router := buildRouter(&appEnv{}, 24)

	req := httptest.NewRequest(http.MethodPost, "/companies/co-1/reminders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "co-1", resp["company_id"])

	time.Sleep(10 * time.Millisecond)
}

func TestBuildRouter_Metrics(t *testing.T) {
	st := newServeTestStore(t)
	env := &appEnv{store: st, collector: monitoring.NewCollector(st)}
	router := buildRouter(env, 24)

	req := httptest.NewRequest(http.MethodGet, "/companies/co-1/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var snap monitoring.MetricsSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, "co-1", snap.CompanyID)
	assert.Equal(t, 0, snap.EmailsTotal)
	assert.Equal(t, 24, snap.LookbackHours)
}

func TestBuildRouter_Metrics_NoCollector(t *testing.T) {
	router := buildRouter(&appEnv{}, 24)

	req := httptest.NewRequest(http.MethodGet, "/companies/co-1/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
