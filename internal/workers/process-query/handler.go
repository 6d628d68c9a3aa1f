// internal/workers/process-query/handler.go
package processquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/common/logger"
	"query-planner/internal/common/metrics"
	"query-planner/internal/common/validation"
	"query-planner/internal/models"
)

const (
	TaskType = "process-query"
)

var (
	ErrNilInput = errors.New("INPUT_REQUIRED")
)

// Planner is the part of the query planner the worker drives.
type Planner interface {
	ProcessQuery(ctx context.Context, req models.QueryRequest) models.QueryResponse
}

type Handler struct {
	config     *Config
	planner    Planner
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, planner Planner, log logger.Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		planner:    planner,
		errHandler: apperrors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := decodeInput(job.Variables)
	if err != nil {
		if errors.Is(err, validation.ErrMalformedPayload) {
			h.failJob(ctx, client, job, "PARSE_ERROR", fmt.Errorf("parse input: %w", err))
			return
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandard(err).Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandard(err).Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// decodeInput validates the job's variables against the query request schema.
func decodeInput(variables string) (*Input, error) {
	req, err := validation.DecodeQueryRequest([]byte(variables))
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidQueryError(ErrNilInput.Error())
	}

	resp := h.planner.ProcessQuery(ctx, *input)

	h.logger.Info("query answered", map[string]interface{}{
		"dataSource":     string(input.DataSource),
		"autoDiscovery":  input.AutoDiscovery,
		"referenceCount": len(resp.References),
	})

	return &Output{
		Answer:     resp.Answer,
		References: resp.References,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

// failJob gives up on the job without retries; the payload will not parse on a second attempt either.
func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, errorCode string, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"errorCode": errorCode,
		"error":     err.Error(),
	})

	_, sendErr := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(err.Error()).
		Send(ctx)
	if sendErr != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
