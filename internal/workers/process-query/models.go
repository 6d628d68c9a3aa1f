// internal/workers/process-query/models.go
package processquery

import "query-planner/internal/models"

// Input is read from the job's variable scope; unrelated process variables are ignored.
type Input = models.QueryRequest

type Output struct {
	Answer     string   `json:"answer"`
	References []string `json:"references"`
}
