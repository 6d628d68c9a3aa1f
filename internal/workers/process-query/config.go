// internal/workers/process-query/config.go
package processquery

import (
	"time"

	"query-planner/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Config{Timeout: timeout}
}
