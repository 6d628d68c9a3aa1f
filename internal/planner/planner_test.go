package planner

import (
	"context"
	"strings"
	"sync"
	"testing"

	"query-planner/internal/common/logger"
	"query-planner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Doubles
// ==========================

type call struct {
	kind    string // search | embedding | compile | analyze
	text    string
	snippet []string
	ds      models.DataSource
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) add(c call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) of(kind string) []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call
	for _, c := range r.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.kind
	}
	return out
}

type fakeAnalyzer struct {
	rec *recorder
	qt  models.QuestionType
}

func (f *fakeAnalyzer) AnalyzeQuestion(_ context.Context, q string) models.QuestionType {
	f.rec.add(call{kind: "analyze", text: q})
	return f.qt
}

type fakeCompiler struct {
	rec     *recorder
	answers []string
	n       int
	mu      sync.Mutex
}

func (f *fakeCompiler) GenerateAnswer(_ context.Context, prompt string, snippets []string) string {
	f.rec.add(call{kind: "compile", text: prompt, snippet: snippets})
	f.mu.Lock()
	defer f.mu.Unlock()
	answer := "answer"
	if f.n < len(f.answers) {
		answer = f.answers[f.n]
	}
	f.n++
	return answer
}

type fakeSearch struct {
	rec       *recorder
	byQuery   map[string][]string
	embedding map[string][]string
}

func (f *fakeSearch) Search(_ context.Context, q string, ds models.DataSource) []string {
	f.rec.add(call{kind: "search", text: q, ds: ds})
	return f.byQuery[q]
}

func (f *fakeSearch) SearchWithEmbedding(_ context.Context, q string, ds models.DataSource) []string {
	f.rec.add(call{kind: "embedding", text: q, ds: ds})
	return f.embedding[q]
}

type fixture struct {
	rec      *recorder
	analyzer *fakeAnalyzer
	compiler *fakeCompiler
	search   *fakeSearch
}

func newFixture(qt models.QuestionType) *fixture {
	rec := &recorder{}
	return &fixture{
		rec:      rec,
		analyzer: &fakeAnalyzer{rec: rec, qt: qt},
		compiler: &fakeCompiler{rec: rec},
		search:   &fakeSearch{rec: rec, byQuery: map[string][]string{}, embedding: map[string][]string{}},
	}
}

func (f *fixture) planner(t *testing.T, cfg *Config, observers ...Observer) *DefaultPlanner {
	return New(cfg, f.analyzer, f.compiler, f.search, logger.NewTestLogger(t), observers...)
}

// ==========================
// Direct Search Path
// ==========================

func TestPlan_DirectSearch_BoilingPointExample(t *testing.T) {
	f := newFixture(models.QuestionTypeReason)
	q := "What's the boiling point of water?"
	f.search.byQuery[q] = []string{"Title: X\nURL: y\n"}
	f.compiler.answers = []string{"100 °C"}

	out := f.planner(t, nil).Plan(context.Background(), models.QueryRequest{Query: q, DataSource: models.DataSourceAll})

	assert.Equal(t, PathDirectSearch, out.Path)
	assert.Empty(t, out.QuestionType)
	assert.Equal(t, []string{"search", "compile"}, f.rec.kinds())

	compile := f.rec.of("compile")[0]
	assert.Contains(t, compile.text, "more accurate")
	assert.Equal(t, "Answer the following question using the results as they are more accurate coming from a search engine: "+q, compile.text)
	assert.Equal(t, []string{"Title: X\nURL: y\n"}, compile.snippet)

	assert.Equal(t, models.QueryResponse{Answer: "100 °C", References: []string{"Title: X\nURL: y\n"}}, out.Response)
}

func TestPlan_DirectSearch_ReferencesAreRawResults(t *testing.T) {
	tests := []struct {
		name    string
		results []string
	}{
		{"empty", []string{}},
		{"nil", nil},
		{"several in order", []string{"c", "a", "b", "a"}},
		{"diagnostic", []string{"Error occurred while searching: timeout"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(models.QuestionTypeSearch)
			f.search.byQuery["q"] = tt.results

			resp := f.planner(t, nil).ProcessQuery(context.Background(), models.QueryRequest{Query: "q", DataSource: models.DataSourceJira})

			assert.Len(t, f.rec.of("search"), 1)
			assert.Len(t, f.rec.of("compile"), 1)
			assert.Empty(t, f.rec.of("analyze"))
			assert.Equal(t, models.DataSourceJira, f.rec.of("search")[0].ds)

			require.NotNil(t, resp.References)
			assert.Equal(t, len(tt.results), len(resp.References))
			for i := range tt.results {
				assert.Equal(t, tt.results[i], resp.References[i])
			}
		})
	}
}

func TestPlan_DefaultsDataSourceToAll(t *testing.T) {
	f := newFixture(models.QuestionTypeSearch)
	f.planner(t, nil).ProcessQuery(context.Background(), models.QueryRequest{Query: "q"})
	assert.Equal(t, models.DataSourceAll, f.rec.of("search")[0].ds)
}

// ==========================
// Routing
// ==========================

func TestPlan_RoutesByQuestionType(t *testing.T) {
	tests := []struct {
		qt        models.QuestionType
		wantPath  Path
		wantKinds []string
	}{
		{models.QuestionTypeSearch, PathSpecificSearch, []string{"analyze", "search", "compile"}},
		{models.QuestionTypeReason, PathDecomposition, []string{"analyze", "embedding", "compile"}},
		{models.QuestionTypeResearch, PathHybridKnowledge, []string{"analyze", "compile", "search", "compile"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.qt), func(t *testing.T) {
			f := newFixture(tt.qt)
			out := f.planner(t, nil).Plan(context.Background(), models.QueryRequest{Query: "q", AutoDiscovery: true})

			assert.Equal(t, tt.wantPath, out.Path)
			assert.Equal(t, tt.qt, out.QuestionType)
			assert.Equal(t, tt.wantKinds, f.rec.kinds())
		})
	}
}

func TestPlan_SpecificSearchPrompt(t *testing.T) {
	f := newFixture(models.QuestionTypeSearch)
	f.search.byQuery["Who owns TIDE-42?"] = []string{"r1"}

	resp := f.planner(t, nil).ProcessQuery(context.Background(), models.QueryRequest{Query: "Who owns TIDE-42?", AutoDiscovery: true})

	compile := f.rec.of("compile")[0]
	assert.Equal(t, "Answer the following question: Who owns TIDE-42?", compile.text)
	assert.NotContains(t, compile.text, "more accurate")
	assert.Equal(t, []string{"r1"}, compile.snippet)
	assert.Equal(t, []string{"r1"}, resp.References)
}

func TestPlan_UnknownQuestionTypeFallsBackToSpecificSearch(t *testing.T) {
	f := newFixture(models.QuestionType("UNSURE"))
	out := f.planner(t, nil).Plan(context.Background(), models.QueryRequest{Query: "q", AutoDiscovery: true})
	assert.Equal(t, PathSpecificSearch, out.Path)
}

// ==========================
// Decomposition Path
// ==========================

func TestPlan_Decomposition_SinglePartByDefault(t *testing.T) {
	f := newFixture(models.QuestionTypeReason)
	f.search.embedding["Why did the build fail?"] = []string{"e1", "e2"}

	resp := f.planner(t, nil).ProcessQuery(context.Background(), models.QueryRequest{
		Query: "Why did the build fail?", DataSource: models.DataSourceConfluence, AutoDiscovery: true,
	})

	embeds := f.rec.of("embedding")
	require.Len(t, embeds, 1)
	assert.Equal(t, "Why did the build fail?", embeds[0].text)
	assert.Equal(t, models.DataSourceConfluence, embeds[0].ds)
	assert.Empty(t, f.rec.of("search"))

	compile := f.rec.of("compile")[0]
	assert.Equal(t, "Answer the following question:Why did the build fail?", compile.text)
	assert.Equal(t, []string{"e1", "e2"}, compile.snippet)
	assert.Equal(t, []string{"e1", "e2"}, resp.References)
}

func TestPlan_Decomposition_PreservesPartOrder(t *testing.T) {
	f := newFixture(models.QuestionTypeReason)
	f.search.embedding["P1"] = []string{"a"}
	f.search.embedding["P2"] = []string{"b"}

	cfg := &Config{Organization: "Tide", Split: func(string) []string { return []string{"P1", "P2"} }}

	for i := 0; i < 20; i++ {
		f.rec.calls = nil
		resp := f.planner(t, cfg).ProcessQuery(context.Background(), models.QueryRequest{Query: "P1 and P2", AutoDiscovery: true})

		assert.Len(t, f.rec.of("embedding"), 2)
		assert.Equal(t, []string{"a", "b"}, f.rec.of("compile")[0].snippet)
		assert.Equal(t, []string{"a", "b"}, resp.References)
	}
}

func TestNew_DoesNotModifyCallerConfig(t *testing.T) {
	f := newFixture(models.QuestionTypeReason)
	f.search.embedding["q"] = []string{"e"}

	cfg := &Config{Organization: "Acme"}
	resp := f.planner(t, cfg).ProcessQuery(context.Background(), models.QueryRequest{Query: "q", AutoDiscovery: true})

	assert.Nil(t, cfg.Split)
	assert.Equal(t, "Acme", cfg.Organization)
	assert.Equal(t, []string{"e"}, resp.References)
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	f := newFixture(models.QuestionTypeResearch)

	f.planner(t, nil).ProcessQuery(context.Background(), models.QueryRequest{Query: "q", AutoDiscovery: true})

	compiles := f.rec.of("compile")
	require.NotEmpty(t, compiles)
	assert.Contains(t, compiles[len(compiles)-1].text, "Tide-specific context")
}

// ==========================
// Hybrid Knowledge Path
// ==========================

func TestPlan_HybridKnowledge(t *testing.T) {
	f := newFixture(models.QuestionTypeResearch)
	f.search.byQuery["How do we deploy?"] = []string{"i1", "i2"}
	f.compiler.answers = []string{"General deploy knowledge", "Final answer"}

	resp := f.planner(t, &Config{Organization: "Tide"}).ProcessQuery(context.Background(), models.QueryRequest{
		Query: "How do we deploy?", AutoDiscovery: true,
	})

	compiles := f.rec.of("compile")
	require.Len(t, compiles, 2)

	assert.Equal(t, "Provide a general explanation for: How do we deploy?", compiles[0].text)
	assert.Empty(t, compiles[0].snippet)

	assert.Equal(t,
		"Combine the following general knowledge with Tide-specific context to answer: How do we deploy?\nGeneral Knowledge: General deploy knowledge",
		compiles[1].text)
	assert.Equal(t, []string{"i1", "i2"}, compiles[1].snippet)

	assert.Equal(t, "Final answer", resp.Answer)
	assert.Equal(t, []string{"i1", "i2"}, resp.References)
	assert.NotContains(t, resp.References, "General deploy knowledge")
}

func TestPlan_HybridKnowledge_OrganizationIsConfigurable(t *testing.T) {
	f := newFixture(models.QuestionTypeResearch)
	f.planner(t, &Config{Organization: "Acme"}).ProcessQuery(context.Background(), models.QueryRequest{Query: "q", AutoDiscovery: true})

	assert.True(t, strings.HasPrefix(f.rec.of("compile")[1].text, "Combine the following general knowledge with Acme-specific context"))
}

// ==========================
// Fail-soft and Determinism
// ==========================

func TestPlan_PassesDegradedTextThrough(t *testing.T) {
	f := newFixture(models.QuestionTypeSearch)
	f.search.byQuery["q"] = []string{"Error occurred while searching: connection refused"}
	f.compiler.answers = []string{"Unable to connect to Ollama. Error: connection refused"}

	resp := f.planner(t, nil).ProcessQuery(context.Background(), models.QueryRequest{Query: "q"})

	assert.Equal(t, "Unable to connect to Ollama. Error: connection refused", resp.Answer)
	assert.Equal(t, []string{"Error occurred while searching: connection refused"}, resp.References)
}

func TestPlan_Idempotent(t *testing.T) {
	for _, qt := range []models.QuestionType{models.QuestionTypeSearch, models.QuestionTypeReason, models.QuestionTypeResearch} {
		f := newFixture(qt)
		f.search.byQuery["q"] = []string{"s1"}
		f.search.embedding["q"] = []string{"e1"}
		p := f.planner(t, nil)
		req := models.QueryRequest{Query: "q", DataSource: models.DataSourceJira, AutoDiscovery: true}

		first := p.ProcessQuery(context.Background(), req)
		second := p.ProcessQuery(context.Background(), req)
		assert.Equal(t, first, second, qt)
	}
}

func TestPlan_ResponseDoesNotAliasSearchResults(t *testing.T) {
	f := newFixture(models.QuestionTypeSearch)
	results := []string{"r1"}
	f.search.byQuery["q"] = results

	resp := f.planner(t, nil).ProcessQuery(context.Background(), models.QueryRequest{Query: "q"})
	results[0] = "mutated"

	assert.Equal(t, []string{"r1"}, resp.References)
}

// ==========================
// Observers
// ==========================

type captureObserver struct {
	outcomes []Outcome
	requests []models.QueryRequest
}

func (c *captureObserver) ObserveQuery(_ context.Context, req models.QueryRequest, out Outcome) {
	c.requests = append(c.requests, req)
	c.outcomes = append(c.outcomes, out)
	if len(out.Response.References) > 0 {
		out.Response.References[0] = "tampered"
	}
}

type panickingObserver struct{}

func (panickingObserver) ObserveQuery(context.Context, models.QueryRequest, Outcome) {
	panic("observer bug")
}

func TestPlan_NotifiesObservers(t *testing.T) {
	f := newFixture(models.QuestionTypeResearch)
	f.search.byQuery["q"] = []string{"r1"}
	obs := &captureObserver{}

	out := f.planner(t, nil, panickingObserver{}, obs).Plan(context.Background(), models.QueryRequest{Query: "q", AutoDiscovery: true})

	require.Len(t, obs.outcomes, 1)
	assert.Equal(t, PathHybridKnowledge, obs.outcomes[0].Path)
	assert.Equal(t, models.QuestionTypeResearch, obs.outcomes[0].QuestionType)
	assert.Equal(t, models.DataSourceAll, obs.requests[0].DataSource)

	assert.Equal(t, []string{"r1"}, out.Response.References)
}

func TestPlan_ConcurrentRequests(t *testing.T) {
	f := newFixture(models.QuestionTypeReason)
	f.search.embedding["q"] = []string{"e"}
	p := f.planner(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := p.ProcessQuery(context.Background(), models.QueryRequest{Query: "q", AutoDiscovery: true})
			assert.Equal(t, []string{"e"}, resp.References)
		}()
	}
	wg.Wait()
	assert.Len(t, f.rec.of("compile"), 16)
}
