// internal/search/brave/config.go
package brave

import (
	"time"

	"query-planner/internal/common/config"
)

type Config struct {
	BaseURL      string
	APIPath      string
	APIKey       string
	ResultsCount int
	Timeout      time.Duration
	MaxRetries   int
}

func LoadConfig(cfg config.BraveConfig) *Config {
	return &Config{
		BaseURL:      cfg.BaseURL,
		APIPath:      cfg.APIPath,
		APIKey:       cfg.APIKey,
		ResultsCount: cfg.ResultsCount,
		Timeout:      config.GetDuration(cfg.Timeout),
		MaxRetries:   cfg.MaxRetries,
	}
}
