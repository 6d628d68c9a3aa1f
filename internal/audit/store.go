// internal/audit/store.go
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"query-planner/internal/models"
)

const insertEntry = `INSERT INTO query_log (id, query, data_source, auto_discovery, question_type, path, answer, "references", duration_ms, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const selectRecent = `SELECT id, query, data_source, auto_discovery, question_type, path, answer, "references", duration_ms, created_at FROM query_log ORDER BY created_at DESC LIMIT $1`

// Entry is one row of the query log.
type Entry struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	DataSource    string    `json:"dataSource"`
	AutoDiscovery bool      `json:"autoDiscovery"`
	QuestionType  string    `json:"questionType,omitempty"`
	Path          string    `json:"path"`
	Answer        string    `json:"answer"`
	References    []string  `json:"references"`
	DurationMs    int64     `json:"durationMs"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Store persists query log entries in Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// EnsureSchema runs the initial migration's statements, which are idempotent.
// Deployments that track schema versions use Migrate instead.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl, err := migrationFS.ReadFile(initialMigration)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("create query_log: %w", err)
	}
	return nil
}

// Insert writes e, filling ID and CreatedAt when they are zero.
func (s *Store) Insert(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	refs := e.References
	if refs == nil {
		refs = []string{}
	}

	_, err := s.db.ExecContext(ctx, insertEntry,
		e.ID, e.Query, e.DataSource, e.AutoDiscovery, e.QuestionType,
		e.Path, e.Answer, pq.Array(refs), e.DurationMs, e.CreatedAt,
	)
	return err
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var refs pq.StringArray
		if err := rows.Scan(&e.ID, &e.Query, &e.DataSource, &e.AutoDiscovery, &e.QuestionType,
			&e.Path, &e.Answer, &refs, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.References = []string(refs)
		if e.References == nil {
			e.References = []string{}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// newEntry flattens a request and its answer into a log row.
func newEntry(req models.QueryRequest, resp models.QueryResponse, path, questionType string, d time.Duration) *Entry {
	return &Entry{
		Query:         req.Query,
		DataSource:    string(req.DataSource.OrDefault()),
		AutoDiscovery: req.AutoDiscovery,
		QuestionType:  questionType,
		Path:          path,
		Answer:        resp.Answer,
		References:    resp.References,
		DurationMs:    d.Milliseconds(),
	}
}
