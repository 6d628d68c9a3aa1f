package audit

import (
	"context"
	"time"

	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/common/logger"
	"query-planner/internal/models"
	"query-planner/internal/planner"
)

// Observer writes every planner outcome to the query log. A failed write is
// logged and dropped; the caller's response is never affected.
type Observer struct {
	store   *Store
	timeout time.Duration
	logger  logger.Logger
}

func NewObserver(store *Store, timeout time.Duration, log logger.Logger) *Observer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Observer{
		store:   store,
		timeout: timeout,
		logger:  log.With(map[string]interface{}{"component": "audit"}),
	}
}

func (o *Observer) ObserveQuery(ctx context.Context, req models.QueryRequest, out planner.Outcome) {
	// The write outlives a cancelled request; only the timeout bounds it.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	entry := newEntry(req, out.Response, string(out.Path), string(out.QuestionType), out.Duration)
	if err := o.store.Insert(writeCtx, entry); err != nil {
		stdErr := apperrors.NewAuditWriteFailedError(err)
		o.logger.Error("failed to write query log", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
			"path":      entry.Path,
		})
		return
	}
	o.logger.Debug("query logged", map[string]interface{}{"id": entry.ID})
}
