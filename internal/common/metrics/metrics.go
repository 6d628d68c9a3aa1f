// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	PlannerQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_queries_total",
			Help: "Total number of questions answered, by execution path",
		},
		[]string{"path"},
	)

	PlannerQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_query_duration_seconds",
			Help:    "End-to-end planning duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"path"},
	)

	ClassifierFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planner_classifier_fallbacks_total",
			Help: "Classifications that fell back to SEARCH because the backend failed or the reply matched no type",
		},
	)

	BackendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_backend_failures_total",
			Help: "Backend calls that degraded into a diagnostic string",
		},
		[]string{"backend"},
	)

	SearchCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_requests_total",
			Help: "Search cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "REST requests by route and status code",
		},
		[]string{"route", "status"},
	)
)
