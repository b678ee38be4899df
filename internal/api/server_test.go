package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbank/questbank-server/internal/ratelimit"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/tree"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()

	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["store"].Status)
	assert.Equal(t, "disabled", health.Components["search"].Status)
}

func TestServer_UnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMutationRateLimit(t *testing.T) {
	st, err := store.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := tree.NewEngine(st, logger, tree.Options{})
	query := tree.NewQuery(st)

	limiter := ratelimit.New(1, 1)
	t.Cleanup(limiter.Stop)

	s := NewServer(st, engine, query, logger, Options{MutationLimiter: limiter})

	post := func() int {
		body := strings.NewReader(`{"name":"Math","code":"MATH","type":"subject"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", body)
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.1.2.3:5555"
		w := httptest.NewRecorder()
		s.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	// Reads are never throttled.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", http.NoBody)
	req.RemoteAddr = "10.1.2.3:5555"
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
