package models

// QueryRequest is the inbound question as submitted by a client.
type QueryRequest struct {
	Query         string     `json:"query"`
	DataSource    DataSource `json:"dataSource"`
	AutoDiscovery bool       `json:"autoDiscovery"`
}

// QueryResponse is the answer plus the snippets it was compiled from.
type QueryResponse struct {
	Answer     string   `json:"answer"`
	References []string `json:"references"`
}

// NewQueryResponse copies refs so the response never aliases a collaborator's slice.
func NewQueryResponse(answer string, refs []string) QueryResponse {
	out := make([]string, len(refs))
	copy(out, refs)
	return QueryResponse{Answer: answer, References: out}
}
