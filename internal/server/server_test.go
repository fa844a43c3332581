package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mujaz/ingest/internal/ingest"
)

type fakeRunner struct {
	report    *ingest.Report
	err       error
	lastLimit int
}

func (f *fakeRunner) Run(_ context.Context, limit int) (*ingest.Report, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

var testOrigins = []string{"https://app.mujaz.io", "https://staging.mujaz.io"}

func newTestServer(r Runner) *Server {
	return New(r, testOrigins, "", nil, false)
}

func TestIngestRequiresServiceKey(t *testing.T) {
	srv := New(&fakeRunner{report: &ingest.Report{}}, testOrigins, "sk-secret", nil, false)

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/ingest", nil)
	req.Header.Set("Authorization", "Bearer sk-secret")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIngestReturnsSummary(t *testing.T) {
	runner := &fakeRunner{report: &ingest.Report{
		SourcesProcessed:     2,
		TotalArticlesFetched: 14,
		TotalNewArticles:     5,
		Results: []ingest.SourceResult{
			{SourceID: 1, FeedURL: "https://a.example/rss", Success: true, NewArticles: 5},
			{SourceID: 2, FeedURL: "https://b.example/rss", Success: true},
		},
	}}
	srv := newTestServer(runner)

	body := bytes.NewBufferString(`{"limit": 15}`)
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 15, runner.lastLimit)

	var resp struct {
		Summary struct {
			SourcesProcessed     int `json:"sources_processed"`
			TotalNewArticles     int `json:"total_new_articles"`
			TotalArticlesFetched int `json:"total_articles_fetched"`
		} `json:"summary"`
		Results []ingest.SourceResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.SourcesProcessed)
	assert.Equal(t, 5, resp.Summary.TotalNewArticles)
	assert.Len(t, resp.Results, 2)
}

func TestIngestEmptyBodyUsesDefaultLimit(t *testing.T) {
	runner := &fakeRunner{report: &ingest.Report{}}
	srv := newTestServer(runner)

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, runner.lastLimit) // pipeline applies the default
}

func TestIngestFailureReturns500(t *testing.T) {
	runner := &fakeRunner{err: errors.New("failed to select due sources: connection refused")}
	srv := newTestServer(runner)

	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "connection refused")
}

func TestCORSEchoesAllowlistedOrigin(t *testing.T) {
	srv := newTestServer(&fakeRunner{report: &ingest.Report{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://staging.mujaz.io")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://staging.mujaz.io", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSUnknownOriginGetsSafeDefault(t *testing.T) {
	srv := newTestServer(&fakeRunner{report: &ingest.Report{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	got := w.Header().Get("Access-Control-Allow-Origin")
	assert.Equal(t, "https://app.mujaz.io", got)
	assert.NotEqual(t, "*", got)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(&fakeRunner{report: &ingest.Report{}})

	req := httptest.NewRequest(http.MethodOptions, "/ingest", nil)
	req.Header.Set("Origin", "https://app.mujaz.io")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.mujaz.io", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&fakeRunner{report: &ingest.Report{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
