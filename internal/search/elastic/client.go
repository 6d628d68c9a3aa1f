// internal/search/elastic/client.go
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/common/logger"
	"query-planner/internal/models"
	"query-planner/internal/search"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const backendName = "elasticsearch"

// Embedder turns a query into the vector stored alongside indexed documents.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client searches the internal knowledge indices. Documents carry title,
// url, body, an optional summary and a dense "embedding" vector.
type Client struct {
	config   *Config
	es       *elasticsearch.Client
	embedder Embedder
	logger   logger.Logger
}

func NewClient(config *Config, es *elasticsearch.Client, embedder Embedder, log logger.Logger) *Client {
	return &Client{
		config:   config,
		es:       es,
		embedder: embedder,
		logger:   log.With(map[string]interface{}{"backend": backendName}),
	}
}

func (c *Client) Name() string { return backendName }

// Search runs a keyword query, weighting titles over bodies.
func (c *Client) Search(ctx context.Context, query string, ds models.DataSource) ([]string, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "body"},
			},
		},
		"size":    c.config.Size,
		"_source": []string{"title", "url", "summary", "body"},
	}
	return c.run(ctx, ds, body)
}

// SearchWithEmbedding runs an approximate kNN query on the embedding field.
func (c *Client) SearchWithEmbedding(ctx context.Context, query string, ds models.DataSource) ([]string, error) {
	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperrors.NewEmbeddingFailedError(err)
	}

	body := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              c.config.Size,
			"num_candidates": c.config.NumCandidates,
		},
		"size":    c.config.Size,
		"_source": []string{"title", "url", "summary", "body"},
	}
	return c.run(ctx, ds, body)
}

type hitSource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
	Body    string `json:"body"`
}

type searchResponse struct {
	Hits *struct {
		Hits []struct {
			Index  string    `json:"_index"`
			Source hitSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Client) run(ctx context.Context, ds models.DataSource, body map[string]interface{}) ([]string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	ignoreUnavailable := true
	req := esapi.SearchRequest{
		Index:             c.config.Indices(ds),
		Body:              bytes.NewReader(payload),
		IgnoreUnavailable: &ignoreUnavailable,
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return nil, apperrors.NewSearchUnavailableError(backendName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewSearchUnavailableError(backendName, fmt.Errorf("search failed: %s", res.Status()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode elasticsearch response: %w", err)
	}
	if r.Hits == nil {
		return nil, apperrors.NewSearchResponseInvalidError(backendName, "hits missing")
	}

	results := make([]string, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		description := hit.Source.Summary
		if description == "" {
			description = truncate(strings.TrimSpace(hit.Source.Body), c.config.SnippetLength)
		}
		results = append(results, search.FormatSnippet(hit.Source.Title, hit.Source.URL, description))
	}

	c.logger.Debug("index search completed", map[string]interface{}{
		"dataSource":  string(ds.OrDefault()),
		"resultCount": len(results),
	})
	return results, nil
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
