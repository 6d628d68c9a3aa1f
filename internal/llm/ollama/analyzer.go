// internal/llm/ollama/analyzer.go
package ollama

import (
	"context"
	"strings"

	"query-planner/internal/common/logger"
	"query-planner/internal/common/metrics"
	"query-planner/internal/models"
)

const classifyPrompt = "Analyze the following question and identify its type. Reply with only one word - either 'search', 'reason', or 'research': "

// Analyzer classifies questions with the generation model.
type Analyzer struct {
	completer Completer
	logger    logger.Logger
}

func NewAnalyzer(completer Completer, log logger.Logger) *Analyzer {
	return &Analyzer{
		completer: completer,
		logger:    log.With(map[string]interface{}{"component": "analyzer"}),
	}
}

// AnalyzeQuestion never fails: an unreachable backend classifies as SEARCH.
func (a *Analyzer) AnalyzeQuestion(ctx context.Context, question string) models.QuestionType {
	reply, err := a.completer.Complete(ctx, classifyPrompt+question)
	if err != nil {
		a.logger.Warn("classification failed, defaulting to SEARCH", map[string]interface{}{"error": err})
		metrics.ClassifierFallbacks.Inc()
		return models.QuestionTypeSearch
	}
	qt, ok := matchQuestionType(reply)
	if !ok {
		a.logger.Debug("unrecognised classification, defaulting to SEARCH", map[string]interface{}{"reply": reply})
		metrics.ClassifierFallbacks.Inc()
	}
	return qt
}

// ParseQuestionType maps a free-text reply onto a QuestionType. Substrings
// are checked in the order search, reason, research, so a reply of
// "research" matches SEARCH.
func ParseQuestionType(reply string) models.QuestionType {
	qt, _ := matchQuestionType(reply)
	return qt
}

func matchQuestionType(reply string) (models.QuestionType, bool) {
	r := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case strings.Contains(r, "search"):
		return models.QuestionTypeSearch, true
	case strings.Contains(r, "reason"):
		return models.QuestionTypeReason, true
	case strings.Contains(r, "research"):
		return models.QuestionTypeResearch, true
	default:
		return models.QuestionTypeSearch, false
	}
}
