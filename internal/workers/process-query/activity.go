// internal/workers/process-query/activity.go
package processquery

import (
	"encoding/json"
	"fmt"

	"query-planner/internal/common/validation"
	"query-planner/pkg/registry"
)

const outputSchema = `{
  "type": "object",
  "required": ["answer", "references"],
  "properties": {
    "answer": {"type": "string"},
    "references": {"type": "array", "items": {"type": "string"}}
  }
}`

// Activity describes the job contract as published in the activity registry.
func Activity(cfg *Config, retries int) (registry.Activity, error) {
	in, err := schemaMap(validation.QueryRequestSchema)
	if err != nil {
		return registry.Activity{}, err
	}
	out, err := schemaMap(outputSchema)
	if err != nil {
		return registry.Activity{}, err
	}

	return registry.Activity{
		ID:                   TaskType,
		DisplayName:          "Process Query",
		Description:          "Answers a question from web or internal search results through the configured LLM",
		Category:             "ai-conversation",
		Version:              "1.0.0",
		TaskType:             TaskType,
		ImplementationStatus: "completed",
		InputSchema:          in,
		OutputSchema:         out,
		ErrorCodes:           []string{"INVALID_QUERY", "PARSE_ERROR"},
		Timeout:              cfg.Timeout.String(),
		Retries:              retries,
		Tags:                 []string{"llm", "search"},
	}, nil
}

func schemaMap(doc string) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return m, nil
}
