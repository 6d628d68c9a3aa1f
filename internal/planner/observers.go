package planner

import (
	"context"

	"query-planner/internal/common/metrics"
	"query-planner/internal/common/observability"
	"query-planner/internal/models"
)

// MetricsObserver records every outcome in Prometheus and, when set, the
// OpenTelemetry meter.
type MetricsObserver struct {
	otel *observability.Observability
}

func NewMetricsObserver(o *observability.Observability) *MetricsObserver {
	return &MetricsObserver{otel: o}
}

func (m *MetricsObserver) ObserveQuery(ctx context.Context, _ models.QueryRequest, out Outcome) {
	path := string(out.Path)
	metrics.PlannerQueries.WithLabelValues(path).Inc()
	metrics.PlannerQueryDuration.WithLabelValues(path).Observe(out.Duration.Seconds())

	m.otel.RecordQueryProcessed(ctx, path, string(out.QuestionType))
	m.otel.RecordQueryDuration(ctx, out.Duration, path)
}
