package planner

import (
	"context"

	"query-planner/internal/models"
)

// QueryAnalyzer assigns a QuestionType to a question. Implementations never
// fail; an unusable backend reply maps to SEARCH.
type QueryAnalyzer interface {
	AnalyzeQuestion(ctx context.Context, question string) models.QuestionType
}

// AnswerCompiler turns a prompt and context snippets into answer text.
// Failures come back as diagnostic text, never as an error.
type AnswerCompiler interface {
	GenerateAnswer(ctx context.Context, prompt string, snippets []string) string
}

// SearchService returns ordered snippets for a query. Failures come back as
// a single diagnostic snippet.
type SearchService interface {
	Search(ctx context.Context, query string, ds models.DataSource) []string
	SearchWithEmbedding(ctx context.Context, query string, ds models.DataSource) []string
}

// SplitFunc breaks a question into independently searchable parts.
type SplitFunc func(question string) []string

// SingleQuestion is the default SplitFunc: the whole question is one part.
func SingleQuestion(question string) []string {
	return []string{question}
}

// Observer is told about every completed plan. It sees a copy of the
// response and cannot influence what the caller receives.
type Observer interface {
	ObserveQuery(ctx context.Context, req models.QueryRequest, outcome Outcome)
}
