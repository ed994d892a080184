package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/gourmand/internal/domain/conversation"
	"github.com/corey/gourmand/internal/ports"
)

type mockSession struct{}

func (mockSession) Stats() conversation.Stats {
	return conversation.Stats{SessionID: "sess-1", Model: "test-model", Turns: 4}
}

type mockCatalog struct {
	recipes  []*ports.RecipeRecord
	sessions []*ports.Session
	err      error
}

func (m *mockCatalog) ListRecipes() ([]*ports.RecipeRecord, error) { return m.recipes, m.err }
func (m *mockCatalog) ListSessions() ([]*ports.Session, error) { return m.sessions, m.err }

func newTestCatalog() *mockCatalog {
	created := time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC)
	return &mockCatalog{
		recipes: []*ports.RecipeRecord{
			{Stem: "lemon_pasta", Title: "Lemon Pasta", Details: "Lemon Pasta\n...", Files: []string{"./lemon_pasta.txt"}, CreatedAt: created},
		},
		sessions: []*ports.Session{
			{
				ID:        "sess-1",
				Model:     "test-model",
				Turns:     2,
				Messages:  make([]ports.Message, 4),
				Usage:     ports.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
				CreatedAt: created,
				UpdatedAt: created.Add(time.Minute),
			},
		},
	}
}

func setupTestServer(t *testing.T, catalog Catalog) *httptest.Server {
	t.Helper()
	srv := NewServer(mockSession{}, catalog, "")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, newTestCatalog())

	var result HealthResult
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/health", &result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "test-model", result.Model)
	assert.Equal(t, "sess-1", result.SessionID)
	assert.Equal(t, 4, result.Turns)
}

func TestRecipes(t *testing.T) {
	ts := setupTestServer(t, newTestCatalog())

	var result RecipesResult
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/recipes", &result))
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "lemon_pasta", result.Recipes[0].Stem)
	assert.Equal(t, "Lemon Pasta", result.Recipes[0].Title)
}

func TestRecipes_EmptyIsArray(t *testing.T) {
	ts := setupTestServer(t, &mockCatalog{})

	resp, err := http.Get(ts.URL + "/api/recipes")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"recipes":[],"count":0}`, string(body))
}

func TestSessions(t *testing.T) {
	ts := setupTestServer(t, newTestCatalog())

	var result SessionsResult
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/sessions", &result))
	require.Equal(t, 1, result.Count)
	s := result.Sessions[0]
	assert.Equal(t, "sess-1", s.ID)
	assert.Equal(t, 4, s.Messages)
	assert.Equal(t, 15, s.Usage.TotalTokens)
}

func TestCatalogErrors(t *testing.T) {
	ts := setupTestServer(t, &mockCatalog{err: fmt.Errorf("disk on fire")})

	var body map[string]string
	assert.Equal(t, http.StatusInternalServerError, getJSON(t, ts.URL+"/api/recipes", &body))
	assert.Equal(t, "disk on fire", body["error"])

	ts2 := setupTestServer(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts2.URL+"/api/sessions", &body))
}

func TestMetricsAndIndex(t *testing.T) {
	ts := setupTestServer(t, newTestCatalog())

	// generate at least one counted request first
	_, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "gourmand_http_requests_total")

	idx, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer idx.Body.Close()
	page, err := io.ReadAll(idx.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>gourmand</title>")
}

func TestPathLabel(t *testing.T) {
	assert.Equal(t, "/api/recipes", pathLabel("/api/recipes"))
	assert.Equal(t, "other", pathLabel("/api/../etc"))
	assert.Equal(t, "other", pathLabel("/favicon.ico"))
}

func TestServer_StartStop(t *testing.T) {
	addrFile := filepath.Join(t.TempDir(), "run", "http.addr")
	srv := NewServer(mockSession{}, newTestCatalog(), addrFile)

	require.NoError(t, srv.Start("127.0.0.1:0"))

	data, err := os.ReadFile(addrFile)
	require.NoError(t, err)
	assert.Equal(t, srv.Addr(), string(data))

	var result HealthResult
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL()+"/api/health", &result))
	assert.NotEmpty(t, result.Uptime)

	srv.Stop()
	srv.Stop() // idempotent

	_, err = os.Stat(addrFile)
	assert.True(t, os.IsNotExist(err), "address file removed on stop")
}
