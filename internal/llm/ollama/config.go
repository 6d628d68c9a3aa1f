// internal/llm/ollama/config.go
package ollama

import (
	"time"

	"query-planner/internal/common/config"
)

type Config struct {
	BaseURL             string
	Model               string
	EmbeddingModel      string
	UseGenerateEndpoint bool
	Timeout             time.Duration
	MaxRetries          int
}

func LoadConfig(cfg config.OllamaConfig) *Config {
	return &Config{
		BaseURL:             cfg.BaseURL,
		Model:               cfg.Model,
		EmbeddingModel:      cfg.EmbeddingModel,
		UseGenerateEndpoint: cfg.UseGenerateEndpoint,
		Timeout:             config.GetDuration(cfg.Timeout),
		MaxRetries:          cfg.MaxRetries,
	}
}
