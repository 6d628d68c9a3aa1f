// internal/search/elastic/config.go
package elastic

import (
	"query-planner/internal/common/config"
	"query-planner/internal/models"
)

type Config struct {
	ConfluenceIndex string
	JiraIndex       string
	Size            int
	NumCandidates   int
	SnippetLength   int
}

func LoadConfig(cfg config.ElasticIndexConfig) *Config {
	return &Config{
		ConfluenceIndex: cfg.ConfluenceIndex,
		JiraIndex:       cfg.JiraIndex,
		Size:            cfg.Size,
		NumCandidates:   cfg.NumCandidates,
		SnippetLength:   500,
	}
}

// Indices maps a data source to the indices that back it.
func (c *Config) Indices(ds models.DataSource) []string {
	switch ds.OrDefault() {
	case models.DataSourceConfluence:
		return []string{c.ConfluenceIndex}
	case models.DataSourceJira:
		return []string{c.JiraIndex}
	default:
		return []string{c.ConfluenceIndex, c.JiraIndex}
	}
}
