package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"query-planner/internal/audit"
	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/common/logger"
	"query-planner/internal/common/validation"
	"query-planner/internal/models"
)

const maxBodyBytes = 1 << 20

type Planner interface {
	ProcessQuery(ctx context.Context, req models.QueryRequest) models.QueryResponse
}

// QueryLog lists recently answered queries.
type QueryLog interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

type QueryHandler struct {
	planner  Planner
	queryLog QueryLog
	logger   logger.Logger
}

// query answers one question. The planner never fails, so anything past
// validation is a 200.
func (h *QueryHandler) query(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}

	req, err := validation.DecodeQueryRequest(body)
	if err != nil {
		if errors.Is(err, validation.ErrMalformedPayload) {
			return apperrors.NewInvalidQueryError("request body is not valid JSON")
		}
		return err
	}

	resp := h.planner.ProcessQuery(c.Request().Context(), req)
	return c.JSON(http.StatusOK, resp)
}

func (h *QueryHandler) recent(c echo.Context) error {
	if h.queryLog == nil {
		return echo.NewHTTPError(http.StatusNotFound, "query log is not enabled")
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 200")
		}
		limit = n
	}

	entries, err := h.queryLog.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"queries": entries})
}
