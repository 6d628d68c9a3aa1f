package processquery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"query-planner/internal/common/config"
	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/common/logger"
	"query-planner/internal/common/validation"
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

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestHandler(t *testing.T, p Planner) *Handler {
	return NewHandler(createTestConfig(), p, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	p := &stubPlanner{resp: models.QueryResponse{Answer: "100 °C", References: []string{"Title: X\nURL: y\n"}}}
	h := createTestHandler(t, p)

	input := &Input{Query: "What's the boiling point of water?", DataSource: models.DataSourceAll}
	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "100 °C", output.Answer)
	assert.Equal(t, []string{"Title: X\nURL: y\n"}, output.References)
	require.Len(t, p.requests, 1)
	assert.Equal(t, *input, p.requests[0])
}

func TestHandler_Execute_NilInput(t *testing.T) {
	h := createTestHandler(t, &stubPlanner{})

	output, err := h.Execute(context.Background(), nil)

	assert.Nil(t, output)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidQuery))
}

func TestHandler_Execute_EmptyReferencesStayEmpty(t *testing.T) {
	h := createTestHandler(t, &stubPlanner{resp: models.NewQueryResponse("a", nil)})

	output, err := h.Execute(context.Background(), &Input{Query: "q"})

	require.NoError(t, err)
	assert.NotNil(t, output.References)
	assert.Empty(t, output.References)
}

// ==========================
// Input Decoding Tests
// ==========================

func TestDecodeInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		want      *Input
		wantCode  apperrors.ErrorCode
		malformed bool
	}{
		{
			name:      "full request",
			variables: `{"query":"Who owns TIDE-42?","dataSource":"jira","autoDiscovery":true}`,
			want:      &Input{Query: "Who owns TIDE-42?", DataSource: models.DataSourceJira, AutoDiscovery: true},
		},
		{
			name:      "defaults and unrelated process variables",
			variables: `{"query":"q","processStartedBy":"ops","attempt":2}`,
			want:      &Input{Query: "q", DataSource: models.DataSourceAll},
		},
		{
			name:      "missing query",
			variables: `{"dataSource":"ALL"}`,
			wantCode:  apperrors.ErrCodeInvalidQuery,
		},
		{
			name:      "blank query",
			variables: `{"query":"   "}`,
			wantCode:  apperrors.ErrCodeInvalidQuery,
		},
		{
			name:      "unknown data source",
			variables: `{"query":"q","dataSource":"SLACK"}`,
			wantCode:  apperrors.ErrCodeInvalidQuery,
		},
		{
			name:      "not json",
			variables: `query=q`,
			malformed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeInput(tt.variables)
			switch {
			case tt.malformed:
				assert.True(t, errors.Is(err, validation.ErrMalformedPayload))
			case tt.wantCode != "":
				assert.True(t, apperrors.HasCode(err, tt.wantCode))
				// Validation failures are thrown as BPMN errors, not retried.
				assert.Equal(t, 0, apperrors.ConvertToBPMNError(apperrors.AsStandard(err)).Retries)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 2*time.Second, LoadConfig(config.WorkerConfig{Timeout: 2000}).Timeout)
	assert.Equal(t, 180*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
}

// ==========================
// Activity Registry Tests
// ==========================

func TestActivity(t *testing.T) {
	a, err := Activity(createTestConfig(), 3)
	require.NoError(t, err)

	assert.Equal(t, TaskType, a.TaskType)
	assert.Equal(t, "5s", a.Timeout)
	assert.Equal(t, []interface{}{"query"}, a.InputSchema["required"])
	assert.Equal(t, []interface{}{"answer", "references"}, a.OutputSchema["required"])
	assert.Contains(t, a.ErrorCodes, "INVALID_QUERY")
}
