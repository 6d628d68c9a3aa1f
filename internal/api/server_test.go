package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"query-planner/internal/audit"
	"query-planner/internal/common/config"
	"query-planner/internal/common/database"
	"query-planner/internal/common/logger"
	"query-planner/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubPlanner struct {
	mu       sync.Mutex
	requests []models.QueryRequest
	resp     models.QueryResponse
}

func (s *stubPlanner) ProcessQuery(_ context.Context, req models.QueryRequest) models.QueryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.resp
}

type stubQueryLog struct {
	entries []audit.Entry
	err     error
	limit   int
}

func (s *stubQueryLog) Recent(_ context.Context, limit int) ([]audit.Entry, error) {
	s.limit = limit
	return s.entries, s.err
}

type stubPinger struct {
	name string
	err  error
}

func (s stubPinger) Name() string { return s.name }
func (s stubPinger) Ping(context.Context) error { return s.err }

func createTestConfig() config.ServerConfig {
	return config.ServerConfig{Port: 0, ReadTimeout: 1000, WriteTimeout: 1000}
}

func createTestServer(t *testing.T, p Planner, ql QueryLog, deps ...database.Pinger) *Server {
	return NewServer(createTestConfig(), p, ql, logger.NewTestLogger(t), deps...)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// ==========================
// POST /api/query
// ==========================

func TestQuery_Success(t *testing.T) {
	p := &stubPlanner{resp: models.QueryResponse{Answer: "100 °C", References: []string{"Title: X\nURL: y\n"}}}
	s := createTestServer(t, p, nil)

	rec := do(t, s, http.MethodPost, "/api/query", `{"query":"What's the boiling point of water?","dataSource":"ALL","autoDiscovery":false}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var resp models.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, p.resp, resp)

	require.Len(t, p.requests, 1)
	assert.Equal(t, models.QueryRequest{Query: "What's the boiling point of water?", DataSource: models.DataSourceAll}, p.requests[0])
}

func TestQuery_EmptyReferencesSerializeAsArray(t *testing.T) {
	s := createTestServer(t, &stubPlanner{resp: models.NewQueryResponse("a", nil)}, nil)

	rec := do(t, s, http.MethodPost, "/api/query", `{"query":"q"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"a","references":[]}`, rec.Body.String())
}

func TestQuery_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `query=q`},
		{"empty body", ``},
		{"missing query", `{"dataSource":"JIRA"}`},
		{"empty query", `{"query":""}`},
		{"query of wrong type", `{"query":42}`},
		{"unknown data source", `{"query":"q","dataSource":"SLACK"}`},
		{"autoDiscovery of wrong type", `{"query":"q","autoDiscovery":"yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPlanner{}
			s := createTestServer(t, p, nil)

			rec := do(t, s, http.MethodPost, "/api/query", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "INVALID_QUERY", body.Error.Code)
			assert.Empty(t, p.requests)
		})
	}
}

// ==========================
// GET /api/queries
// ==========================

func TestRecent(t *testing.T) {
	ql := &stubQueryLog{entries: []audit.Entry{{ID: "id-1", Query: "q", Path: "direct_search", References: []string{}, CreatedAt: time.Unix(0, 0).UTC()}}}
	s := createTestServer(t, &stubPlanner{}, ql)

	rec := do(t, s, http.MethodGet, "/api/queries?limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ql.limit)
	assert.Contains(t, rec.Body.String(), `"id":"id-1"`)
}

func TestRecent_Errors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec := do(t, createTestServer(t, &stubPlanner{}, nil), http.MethodGet, "/api/queries", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("bad limit", func(t *testing.T) {
		rec := do(t, createTestServer(t, &stubPlanner{}, &stubQueryLog{}), http.MethodGet, "/api/queries?limit=0", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("store failure", func(t *testing.T) {
		rec := do(t, createTestServer(t, &stubPlanner{}, &stubQueryLog{err: errors.New("db down")}), http.MethodGet, "/api/queries", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

// ==========================
// Operational Endpoints
// ==========================

func TestHealth(t *testing.T) {
	rec := do(t, createTestServer(t, &stubPlanner{}, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		s := createTestServer(t, &stubPlanner{}, nil, stubPinger{name: "redis"}, stubPinger{name: "postgres"})
		rec := do(t, s, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("dependency down", func(t *testing.T) {
		s := createTestServer(t, &stubPlanner{}, nil, stubPinger{name: "redis"}, stubPinger{name: "elasticsearch", err: errors.New("connection refused")})
		rec := do(t, s, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "elasticsearch")
		assert.NotContains(t, rec.Body.String(), `"redis"`)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := createTestServer(t, &stubPlanner{}, nil)
	do(t, s, http.MethodGet, "/health", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, createTestServer(t, &stubPlanner{}, nil), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
