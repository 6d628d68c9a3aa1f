// Package planner routes a question through one of four answer-construction
// paths and assembles the answer with its references.
package planner

import (
	"context"
	"sync"
	"time"

	"query-planner/internal/common/logger"
	"query-planner/internal/models"
)

// Path identifies the strategy that produced an answer.
type Path string

const (
	PathDirectSearch    Path = "direct_search"
	PathSpecificSearch  Path = "specific_search"
	PathDecomposition   Path = "decomposition"
	PathHybridKnowledge Path = "hybrid_knowledge"
)

// Outcome is a response plus how it was produced. QuestionType is empty on
// the direct path, where no classification happens.
type Outcome struct {
	Response     models.QueryResponse
	Path         Path
	QuestionType models.QuestionType
	Duration     time.Duration
}

// DefaultPlanner holds only its collaborators and is safe for concurrent use.
type DefaultPlanner struct {
	config    *Config
	analyzer  QueryAnalyzer
	compiler  AnswerCompiler
	searcher  SearchService
	observers []Observer
	logger    logger.Logger
}

func New(cfg *Config, analyzer QueryAnalyzer, compiler AnswerCompiler, searcher SearchService, log logger.Logger, observers ...Observer) *DefaultPlanner {
	c := Config{Organization: "Tide"}
	if cfg != nil {
		c = *cfg
	}
	if c.Split == nil {
		c.Split = SingleQuestion
	}
	return &DefaultPlanner{
		config:    &c,
		analyzer:  analyzer,
		compiler:  compiler,
		searcher:  searcher,
		observers: observers,
		logger:    log.With(map[string]interface{}{"component": "planner"}),
	}
}

// ProcessQuery answers req. It always returns a complete response.
func (p *DefaultPlanner) ProcessQuery(ctx context.Context, req models.QueryRequest) models.QueryResponse {
	return p.Plan(ctx, req).Response
}

// Plan answers req and reports which path ran.
func (p *DefaultPlanner) Plan(ctx context.Context, req models.QueryRequest) Outcome {
	start := time.Now()
	req.DataSource = req.DataSource.OrDefault()

	var out Outcome
	if !req.AutoDiscovery {
		out = p.directSearch(ctx, req)
	} else {
		qt := p.analyzer.AnalyzeQuestion(ctx, req.Query)
		switch qt {
		case models.QuestionTypeReason:
			out = p.decomposition(ctx, req)
		case models.QuestionTypeResearch:
			out = p.hybridKnowledge(ctx, req)
		default:
			out = p.specificSearch(ctx, req)
		}
		out.QuestionType = qt
	}
	out.Duration = time.Since(start)

	p.logger.Info("query processed", map[string]interface{}{
		"path":           string(out.Path),
		"questionType":   string(out.QuestionType),
		"dataSource":     string(req.DataSource),
		"referenceCount": len(out.Response.References),
		"durationMs":     out.Duration.Milliseconds(),
	})
	p.notify(ctx, req, out)
	return out
}

func (p *DefaultPlanner) directSearch(ctx context.Context, req models.QueryRequest) Outcome {
	results := p.searcher.Search(ctx, req.Query, req.DataSource)
	answer := p.compiler.GenerateAnswer(ctx, directSearchPrompt(req.Query), results)
	return Outcome{Response: models.NewQueryResponse(answer, results), Path: PathDirectSearch}
}

func (p *DefaultPlanner) specificSearch(ctx context.Context, req models.QueryRequest) Outcome {
	results := p.searcher.Search(ctx, req.Query, req.DataSource)
	answer := p.compiler.GenerateAnswer(ctx, answerPrompt(req.Query), results)
	return Outcome{Response: models.NewQueryResponse(answer, results), Path: PathSpecificSearch}
}

// decomposition searches every part concurrently and flattens the results in
// part order.
func (p *DefaultPlanner) decomposition(ctx context.Context, req models.QueryRequest) Outcome {
	parts := p.config.Split(req.Query)
	perPart := make([][]string, len(parts))

	var wg sync.WaitGroup
	for i, part := range parts {
		wg.Add(1)
		go func(i int, part string) {
			defer wg.Done()
			perPart[i] = p.searcher.SearchWithEmbedding(ctx, part, req.DataSource)
		}(i, part)
	}
	wg.Wait()

	results := make([]string, 0)
	for _, r := range perPart {
		results = append(results, r...)
	}

	answer := p.compiler.GenerateAnswer(ctx, decompositionPrompt(req.Query), results)
	return Outcome{Response: models.NewQueryResponse(answer, results), Path: PathDecomposition}
}

// hybridKnowledge compiles a context-free explanation first and feeds it,
// with the internal search results as context, into the final compile.
func (p *DefaultPlanner) hybridKnowledge(ctx context.Context, req models.QueryRequest) Outcome {
	general := p.compiler.GenerateAnswer(ctx, generalKnowledgePrompt(req.Query), []string{})
	results := p.searcher.Search(ctx, req.Query, req.DataSource)
	answer := p.compiler.GenerateAnswer(ctx, hybridPrompt(p.config.Organization, req.Query, general), results)
	return Outcome{Response: models.NewQueryResponse(answer, results), Path: PathHybridKnowledge}
}

func (p *DefaultPlanner) notify(ctx context.Context, req models.QueryRequest, out Outcome) {
	for _, o := range p.observers {
		snapshot := out
		snapshot.Response = models.NewQueryResponse(out.Response.Answer, out.Response.References)
		p.safeObserve(ctx, o, req, snapshot)
	}
}

func (p *DefaultPlanner) safeObserve(ctx context.Context, o Observer, req models.QueryRequest, out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("observer panicked", map[string]interface{}{"panic": r})
		}
	}()
	o.ObserveQuery(ctx, req, out)
}
