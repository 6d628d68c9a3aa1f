// Package errors provides the structured error type used at the edges of the
// query planner: backend failures before they are turned into diagnostics,
// request validation failures and BPMN errors for the Zeebe adapter.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode is a stable, machine-readable failure identifier.
type ErrorCode string

const (
	ErrCodeInvalidQuery          ErrorCode = "INVALID_QUERY"
	ErrCodeLLMUnavailable        ErrorCode = "LLM_UNAVAILABLE"
	ErrCodeLLMResponseInvalid    ErrorCode = "LLM_RESPONSE_INVALID"
	ErrCodeSearchUnavailable     ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeSearchResponseInvalid ErrorCode = "SEARCH_RESPONSE_INVALID"
	ErrCodeEmbeddingFailed       ErrorCode = "EMBEDDING_FAILED"
	ErrCodeAuditWriteFailed      ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// Is matches another StandardError by code, so errors.Is(err, &StandardError{Code: X}) works.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

func newError(code ErrorCode, msg string, cause error, retryable bool) *StandardError {
	se := &StandardError{
		Code:      code,
		Message:   msg,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
}

// NewInvalidQueryError reports a request that failed validation.
func NewInvalidQueryError(details string) *StandardError {
	se := newError(ErrCodeInvalidQuery, "Invalid query request", nil, false)
	se.Details = details
	return se
}

// NewLLMUnavailableError wraps a transport failure talking to the generation backend.
func NewLLMUnavailableError(err error) *StandardError {
	return newError(ErrCodeLLMUnavailable, "Generation backend unreachable", err, true)
}

// NewLLMResponseInvalidError reports a reply without the expected fields.
func NewLLMResponseInvalidError(details string) *StandardError {
	se := newError(ErrCodeLLMResponseInvalid, "Generation backend returned an unexpected payload", nil, false)
	se.Details = details
	return se
}

// NewSearchUnavailableError wraps a transport failure talking to a search backend.
func NewSearchUnavailableError(backend string, err error) *StandardError {
	se := newError(ErrCodeSearchUnavailable, "Search backend unreachable", err, true)
	se.Metadata = map[string]interface{}{"backend": backend}
	return se
}

// NewSearchResponseInvalidError reports a search payload of the wrong shape.
func NewSearchResponseInvalidError(backend, details string) *StandardError {
	se := newError(ErrCodeSearchResponseInvalid, "Search backend returned an unexpected payload", nil, false)
	se.Details = details
	se.Metadata = map[string]interface{}{"backend": backend}
	return se
}

// NewEmbeddingFailedError wraps a failure computing a query vector.
func NewEmbeddingFailedError(err error) *StandardError {
	return newError(ErrCodeEmbeddingFailed, "Could not embed query", err, true)
}

// NewAuditWriteFailedError wraps a failure persisting a query log entry.
func NewAuditWriteFailedError(err error) *StandardError {
	return newError(ErrCodeAuditWriteFailed, "Could not record query", err, true)
}

// NewInternalError wraps anything without a more specific code.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// AsStandard returns err as a *StandardError, wrapping it as INTERNAL_ERROR if needed.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var se *StandardError
	if stderrors.As(err, &se) {
		return se
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var se *StandardError
	return stderrors.As(err, &se) && se.Code == code
}

// BPMNError is what the Zeebe adapter throws back to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail/throw variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// GetRetryCount returns how many times a job failing with code should be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLLMUnavailable, ErrCodeSearchUnavailable, ErrCodeAuditWriteFailed:
		return 3
	case ErrCodeEmbeddingFailed:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory groups codes for logging and dashboards.
func GetErrorCategory(code ErrorCode) string {
	c := string(code)
	switch {
	case strings.HasPrefix(c, "LLM") || strings.HasPrefix(c, "EMBEDDING"):
		return "GENERATION"
	case strings.HasPrefix(c, "SEARCH"):
		return "SEARCH"
	case strings.HasPrefix(c, "AUDIT"):
		return "STORAGE"
	case strings.HasPrefix(c, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
