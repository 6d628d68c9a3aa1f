// internal/llm/ollama/compiler.go
package ollama

import (
	"context"
	"errors"
	"strings"

	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/common/logger"
	"query-planner/internal/common/metrics"
)

const (
	contextSeparator = "\nUse This Context as most recent:\n"

	UnavailablePrefix = "Unable to connect to Ollama. Error: "
	ParseErrorMessage = "Error: Could not parse response from Ollama"
)

// Compiler produces answers from a prompt plus optional context snippets.
type Compiler struct {
	completer Completer
	logger    logger.Logger
}

func NewCompiler(completer Completer, log logger.Logger) *Compiler {
	return &Compiler{
		completer: completer,
		logger:    log.With(map[string]interface{}{"component": "compiler"}),
	}
}

// GenerateAnswer makes exactly one completion call. Failures are returned as
// diagnostic text in place of the answer.
func (c *Compiler) GenerateAnswer(ctx context.Context, prompt string, snippets []string) string {
	answer, err := c.completer.Complete(ctx, BuildPrompt(prompt, snippets))
	if err != nil {
		c.logger.Warn("answer generation degraded", map[string]interface{}{"error": err})
		metrics.BackendFailures.WithLabelValues(backendName).Inc()
		return Diagnostic(err)
	}
	return answer
}

// BuildPrompt appends the context block when there is any context.
func BuildPrompt(prompt string, snippets []string) string {
	if len(snippets) == 0 {
		return prompt
	}
	return prompt + contextSeparator + strings.Join(snippets, "\n")
}

// Diagnostic renders a completion failure as answer text.
func Diagnostic(err error) string {
	if apperrors.HasCode(err, apperrors.ErrCodeLLMResponseInvalid) {
		return ParseErrorMessage
	}
	msg := err.Error()
	var se *apperrors.StandardError
	if errors.As(err, &se) && se.Details != "" {
		msg = se.Details
	}
	return UnavailablePrefix + msg
}
