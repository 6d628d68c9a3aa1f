package planner

import "query-planner/internal/common/config"

type Config struct {
	// Organization names the internal knowledge owner in the hybrid prompt.
	Organization string
	Split        SplitFunc
}

func LoadConfig(cfg config.PlannerConfig) *Config {
	org := cfg.Organization
	if org == "" {
		org = "Tide"
	}
	return &Config{Organization: org, Split: SingleQuestion}
}
