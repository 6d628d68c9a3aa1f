// internal/models/query_types.go
package models

import "strings"

// DataSource selects which corpus a search runs against.
type DataSource string

const (
	DataSourceAll        DataSource = "ALL"
	DataSourceConfluence DataSource = "CONFLUENCE"
	DataSourceJira       DataSource = "JIRA"
)

// DataSources lists every accepted value, in declaration order.
var DataSources = []DataSource{DataSourceAll, DataSourceConfluence, DataSourceJira}

// ParseDataSource accepts any casing; empty input means ALL.
func ParseDataSource(s string) (DataSource, bool) {
	if strings.TrimSpace(s) == "" {
		return DataSourceAll, true
	}
	ds := DataSource(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range DataSources {
		if ds == known {
			return ds, true
		}
	}
	return "", false
}

// OrDefault maps the zero value to ALL.
func (d DataSource) OrDefault() DataSource {
	if d == "" {
		return DataSourceAll
	}
	return d
}

// QuestionType is the intent category the classifier assigns to a question.
type QuestionType string

const (
	QuestionTypeSearch   QuestionType = "SEARCH"
	QuestionTypeReason   QuestionType = "REASON"
	QuestionTypeResearch QuestionType = "RESEARCH"
)
