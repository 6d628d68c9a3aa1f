// internal/search/brave/client.go
package brave

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	apperrors "query-planner/internal/common/errors"
	httpclient "query-planner/internal/common/http"
	"query-planner/internal/common/logger"
	"query-planner/internal/models"
	"query-planner/internal/search"
)

const backendName = "brave"

// Client queries the Brave Web Search API. The public web has no notion of
// data sources, so the requested source is ignored.
type Client struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	l := log.With(map[string]interface{}{"backend": backendName})
	return &Client{
		config: config,
		client: httpclient.NewClient(config.Timeout,
			httpclient.WithRetries(config.MaxRetries),
			httpclient.WithLogger(l),
		),
		logger: l,
	}
}

func (c *Client) Name() string { return backendName }

func (c *Client) Search(ctx context.Context, query string, _ models.DataSource) ([]string, error) {
	endpoint, err := c.buildURL(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewSearchUnavailableError(backendName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewSearchUnavailableError(backendName,
			fmt.Errorf("%d %s from GET %s", resp.StatusCode, http.StatusText(resp.StatusCode), req.URL.Path))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewSearchUnavailableError(backendName, err)
	}
	results, err := parseResults(body, c.config.ResultsCount)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("web search completed", map[string]interface{}{
		"resultCount": len(results),
	})
	return results, nil
}

// parseResults formats at most limit hits. A null web or web.results counts
// as missing.
func parseResults(body []byte, limit int) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode brave response: invalid JSON")
	}
	list := gjson.GetBytes(body, "web.results")
	if !list.IsArray() {
		return nil, apperrors.NewSearchResponseInvalidError(backendName, "web.results missing")
	}

	items := list.Array()
	if len(items) > limit {
		items = items[:limit]
	}
	results := make([]string, 0, len(items))
	for _, item := range items {
		results = append(results, search.FormatSnippet(
			item.Get("title").String(),
			item.Get("url").String(),
			item.Get("description").String(),
		))
	}
	return results, nil
}

// SearchWithEmbedding falls back to keyword search; Brave has no vector API.
func (c *Client) SearchWithEmbedding(ctx context.Context, query string, ds models.DataSource) ([]string, error) {
	return c.Search(ctx, query, ds)
}

func (c *Client) buildURL(query string) (string, error) {
	u, err := url.Parse(c.config.BaseURL + c.config.APIPath)
	if err != nil {
		return "", fmt.Errorf("invalid brave url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(c.config.ResultsCount))
	u.RawQuery = params.Encode()
	return u.String(), nil
}
