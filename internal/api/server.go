// Package api exposes the planner over REST.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"query-planner/internal/common/config"
	"query-planner/internal/common/database"
	apperrors "query-planner/internal/common/errors"
	"query-planner/internal/common/logger"
	"query-planner/internal/common/metrics"
)

const readyTimeout = 2 * time.Second

type Server struct {
	echo   *echo.Echo
	config config.ServerConfig
	logger logger.Logger
}

// NewServer wires the routes. queryLog may be nil when no audit database is
// configured; deps are pinged by /ready.
func NewServer(cfg config.ServerConfig, planner Planner, queryLog QueryLog, log logger.Logger, deps ...database.Pinger) *Server {
	log = log.With(map[string]interface{}{"component": "api"})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestMetrics)
	e.Use(requestLogger(log))

	h := &QueryHandler{planner: planner, queryLog: queryLog, logger: log}
	api := e.Group("/api")
	api.POST("/query", h.query)
	api.GET("/queries", h.recent)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		failures := database.CheckAll(c.Request().Context(), readyTimeout, deps...)
		if len(failures) > 0 {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable", "failures": failures})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.Server.ReadTimeout = config.GetDuration(cfg.ReadTimeout)
	e.Server.WriteTimeout = config.GetDuration(cfg.WriteTimeout)

	return &Server{echo: e, config: cfg, logger: log}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.config.Address()})
	if err := s.echo.Start(s.config.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type errorBody struct {
	Error *apperrors.StandardError `json:"error"`
}

// errorHandler renders StandardErrors as {"error": {...}} and everything else
// through echo's HTTPError.
func errorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var se *apperrors.StandardError
		if errors.As(err, &se) {
			status := http.StatusInternalServerError
			if se.Code == apperrors.ErrCodeInvalidQuery {
				status = http.StatusBadRequest
			}
			_ = c.JSON(status, errorBody{Error: se})
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
		} else {
			log.Error("unhandled request error", map[string]interface{}{
				"path":  c.Request().URL.Path,
				"error": err.Error(),
			})
		}
		_ = c.JSON(code, map[string]interface{}{"error": map[string]string{"message": msg}})
	}
}

func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Response().Status)).Inc()
		return nil
	}
}

func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Debug("request", map[string]interface{}{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"requestId":  c.Response().Header().Get(echo.HeaderXRequestID),
				"durationMs": time.Since(start).Milliseconds(),
			})
			return err
		}
	}
}
