// Package search holds the search backends and the adapter that turns their
// errors into the diagnostic snippets the planner treats as ordinary results.
package search

import (
	"context"
	"errors"
	"strings"

	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/common/logger"
	"query-planner/internal/common/metrics"
	"query-planner/internal/models"
)

const (
	// NoResultsMessage replaces a payload that lacks the expected result list.
	NoResultsMessage = "No results found or error in response format"
	// ErrorPrefix starts the diagnostic for any other backend failure.
	ErrorPrefix = "Error occurred while searching: "
)

// Backend is a search provider with an explicit failure channel.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, ds models.DataSource) ([]string, error)
	SearchWithEmbedding(ctx context.Context, query string, ds models.DataSource) ([]string, error)
}

// FailSoft adapts a Backend to the planner's never-failing search contract.
type FailSoft struct {
	backend Backend
	logger  logger.Logger
}

func NewFailSoft(backend Backend, log logger.Logger) *FailSoft {
	return &FailSoft{
		backend: backend,
		logger:  log.With(map[string]interface{}{"backend": backend.Name()}),
	}
}

func (f *FailSoft) Search(ctx context.Context, query string, ds models.DataSource) []string {
	results, err := f.backend.Search(ctx, query, ds.OrDefault())
	if err != nil {
		return f.degrade("search", err)
	}
	return results
}

func (f *FailSoft) SearchWithEmbedding(ctx context.Context, query string, ds models.DataSource) []string {
	results, err := f.backend.SearchWithEmbedding(ctx, query, ds.OrDefault())
	if err != nil {
		return f.degrade("search_with_embedding", err)
	}
	return results
}

func (f *FailSoft) degrade(mode string, err error) []string {
	code := apperrors.AsStandard(err).Code
	f.logger.Warn("Search degraded to diagnostic", map[string]interface{}{
		"mode":      mode,
		"errorCode": string(code),
		"error":     err,
	})
	metrics.BackendFailures.WithLabelValues(f.backend.Name()).Inc()
	return []string{Diagnostic(err)}
}

// Diagnostic renders err the way it is surfaced to the answer compiler. A
// SEARCH_RESPONSE_INVALID error becomes NoResultsMessage.
func Diagnostic(err error) string {
	if apperrors.HasCode(err, apperrors.ErrCodeSearchResponseInvalid) {
		return NoResultsMessage
	}
	msg := err.Error()
	var se *apperrors.StandardError
	if errors.As(err, &se) && se.Details != "" {
		msg = se.Details
	}
	return ErrorPrefix + msg
}

// FormatSnippet renders one hit as Title/URL/Description lines, skipping empty fields.
func FormatSnippet(title, url, description string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString("Title: ")
		sb.WriteString(title)
		sb.WriteString("\n")
	}
	if url != "" {
		sb.WriteString("URL: ")
		sb.WriteString(url)
		sb.WriteString("\n")
	}
	if description != "" {
		sb.WriteString("Description: ")
		sb.WriteString(description)
		sb.WriteString("\n")
	}
	return sb.String()
}
