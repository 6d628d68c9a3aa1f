package validation

import (
	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/models"
)

// QueryRequestSchema accepts unknown properties so that whole Zeebe variable
// scopes can be validated as-is.
const QueryRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "dataSource": {
      "type": ["string", "null"],
      "pattern": "^(?i)(all|confluence|jira)?$"
    },
    "autoDiscovery": {"type": ["boolean", "null"]}
  },
  "additionalProperties": true
}`

var queryRequestSchema = MustCompile(QueryRequestSchema)

// DecodeQueryRequest validates and decodes a request document. It returns an
// error wrapping ErrMalformedPayload for non-JSON input and an INVALID_QUERY
// StandardError for schema violations.
func DecodeQueryRequest(doc []byte) (models.QueryRequest, error) {
	result, err := queryRequestSchema.ValidateBytes(doc)
	if err != nil {
		return models.QueryRequest{}, err
	}
	if !result.Valid {
		return models.QueryRequest{}, apperrors.NewInvalidQueryError(result.Summary())
	}

	var raw struct {
		Query         string  `json:"query"`
		DataSource    *string `json:"dataSource"`
		AutoDiscovery *bool   `json:"autoDiscovery"`
	}
	if err := decodeInto(doc, &raw); err != nil {
		return models.QueryRequest{}, err
	}

	req := models.QueryRequest{Query: raw.Query, DataSource: models.DataSourceAll}
	if raw.DataSource != nil {
		ds, ok := models.ParseDataSource(*raw.DataSource)
		if !ok {
			return models.QueryRequest{}, apperrors.NewInvalidQueryError("dataSource: unknown value " + *raw.DataSource)
		}
		req.DataSource = ds
	}
	if raw.AutoDiscovery != nil {
		req.AutoDiscovery = *raw.AutoDiscovery
	}
	return req, nil
}
