// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot be told apart from "unset" after
	// unmarshal, so they are seeded here.
	v.SetDefault("apis.ollama.use_generate_endpoint", true)
	v.SetDefault("search.cache.enabled", false)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Fprintf(os.Stderr, "Loaded .env from: %s\n", path)
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known variables when the file left them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.Brave.APIKey == "" {
		if val := os.Getenv("BRAVE_SEARCH_API_KEY"); val != "" {
			cfg.APIs.Brave.APIKey = val
		}
	}
	if cfg.APIs.Ollama.BaseURL == "" {
		if val := os.Getenv("OLLAMA_BASE_URL"); val != "" {
			cfg.APIs.Ollama.BaseURL = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "query-planner"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 180000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.APIs.Ollama.BaseURL == "" {
		cfg.APIs.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.APIs.Ollama.Model == "" {
		cfg.APIs.Ollama.Model = "llama3.2"
	}
	if cfg.APIs.Ollama.EmbeddingModel == "" {
		cfg.APIs.Ollama.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.APIs.Ollama.Timeout == 0 {
		cfg.APIs.Ollama.Timeout = 120000
	}
	if cfg.APIs.Ollama.MaxRetries == 0 {
		cfg.APIs.Ollama.MaxRetries = 3
	}

	if cfg.APIs.Brave.BaseURL == "" {
		cfg.APIs.Brave.BaseURL = "https://api.search.brave.com"
	}
	if cfg.APIs.Brave.APIPath == "" {
		cfg.APIs.Brave.APIPath = "/res/v1/web/search"
	}
	if cfg.APIs.Brave.ResultsCount == 0 {
		cfg.APIs.Brave.ResultsCount = 5
	}
	if cfg.APIs.Brave.Timeout == 0 {
		cfg.APIs.Brave.Timeout = 10000
	}
	if cfg.APIs.Brave.MaxRetries == 0 {
		cfg.APIs.Brave.MaxRetries = 3
	}

	if cfg.Planner.Organization == "" {
		cfg.Planner.Organization = "Tide"
	}

	if cfg.Search.Backend == "" {
		cfg.Search.Backend = SearchBackendBrave
	}
	if cfg.Search.Cache.TTL == 0 {
		cfg.Search.Cache.TTL = 300000
	}
	if cfg.Search.Elastic.ConfluenceIndex == "" {
		cfg.Search.Elastic.ConfluenceIndex = "confluence"
	}
	if cfg.Search.Elastic.JiraIndex == "" {
		cfg.Search.Elastic.JiraIndex = "jira"
	}
	if cfg.Search.Elastic.Size == 0 {
		cfg.Search.Elastic.Size = 5
	}
	if cfg.Search.Elastic.NumCandidates == 0 {
		cfg.Search.Elastic.NumCandidates = 50
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

const (
	SearchBackendBrave   = "brave"
	SearchBackendElastic = "elastic"
)

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Search.Backend {
	case SearchBackendBrave:
	case SearchBackendElastic:
		if len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for search.backend=elastic")
		}
	default:
		return fmt.Errorf("search.backend must be %q or %q, got %q", SearchBackendBrave, SearchBackendElastic, cfg.Search.Backend)
	}

	if cfg.Search.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when search.cache.enabled")
	}

	if cfg.Database.Postgres.Enabled() {
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.APIs.Brave.ResultsCount < 0 {
		return fmt.Errorf("apis.brave.results_count must not be negative")
	}
	return nil
}

// ValidateForWorker checks the settings only the Zeebe worker needs. Every
// named task type must be enabled.
func ValidateForWorker(cfg *Config, taskTypes ...string) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	for _, t := range taskTypes {
		if !IsWorkerEnabled(cfg, t) {
			return fmt.Errorf("workers.%s.enabled is false, nothing to run", t)
		}
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
