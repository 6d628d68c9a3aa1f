// internal/llm/ollama/client.go
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "query-planner/internal/common/errors"
	httpclient "query-planner/internal/common/http"
	"query-planner/internal/common/logger"
)

const backendName = "ollama"

// Completer produces a completion for a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client talks to an Ollama server over its REST API with streaming off.
type Client struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	l := log.With(map[string]interface{}{"backend": backendName, "model": config.Model})
	return &Client{
		config: config,
		client: httpclient.NewClient(config.Timeout,
			httpclient.WithRetries(config.MaxRetries),
			httpclient.WithLogger(l),
		),
		logger: l,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends prompt to /api/generate or /api/chat depending on config.
// Transport failures come back as LLM_UNAVAILABLE, replies without the
// expected field as LLM_RESPONSE_INVALID.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.config.UseGenerateEndpoint {
		return c.generate(ctx, prompt)
	}
	return c.chat(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model":  c.config.Model,
		"prompt": prompt,
		"stream": false,
	}
	var reply struct {
		Response *string `json:"response"`
	}
	if err := c.post(ctx, "/api/generate", body, &reply); err != nil {
		return "", err
	}
	if reply.Response == nil {
		return "", apperrors.NewLLMResponseInvalidError("response field missing")
	}
	return *reply.Response, nil
}

func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model":    c.config.Model,
		"messages": []chatMessage{{Role: "user", Content: prompt}},
		"stream":   false,
	}
	var reply struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	}
	if err := c.post(ctx, "/api/chat", body, &reply); err != nil {
		return "", err
	}
	if reply.Message == nil || reply.Message.Content == nil {
		return "", apperrors.NewLLMResponseInvalidError("message.content field missing")
	}
	return *reply.Message.Content, nil
}

// Embed returns the embedding vector for text using the embedding model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body := map[string]interface{}{
		"model":  c.config.EmbeddingModel,
		"prompt": text,
	}
	var reply struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.post(ctx, "/api/embeddings", body, &reply); err != nil {
		return nil, err
	}
	if len(reply.Embedding) == 0 {
		return nil, apperrors.NewLLMResponseInvalidError("embedding field missing or empty")
	}
	return reply.Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewLLMUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewLLMUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewLLMUnavailableError(
			fmt.Errorf("%d %s from POST %s", resp.StatusCode, http.StatusText(resp.StatusCode), url))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewLLMUnavailableError(fmt.Errorf("decode %s reply: %w", path, err))
	}
	return nil
}
