// cmd/query-planner/app.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"query-planner/internal/api"
	"query-planner/internal/audit"
	"query-planner/internal/common/config"
	"query-planner/internal/common/database"
	"query-planner/internal/common/logger"
	"query-planner/internal/common/observability"
	"query-planner/internal/llm/ollama"
	"query-planner/internal/planner"
	"query-planner/internal/search"
	"query-planner/internal/search/brave"
	"query-planner/internal/search/cache"
	"query-planner/internal/search/elastic"
)

// app holds everything the commands share.
type app struct {
	cfg      *config.Config
	zapLog   *zap.Logger
	log      logger.Logger
	obs      *observability.Observability
	planner  *planner.DefaultPlanner
	auditLog *audit.Store
	pingers  []database.Pinger
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    logger.NewZapAdapter(zapLog).With(map[string]interface{}{"service": cfg.App.Name}),
		obs:    observability.New(cfg.App.Name),
	}

	llmClient := ollama.NewClient(ollama.LoadConfig(cfg.APIs.Ollama), a.log)

	backend, err := a.searchBackend(ctx, llmClient)
	if err != nil {
		a.close()
		return nil, err
	}

	observers := []planner.Observer{planner.NewMetricsObserver(a.obs)}
	if obs := a.auditObserver(ctx); obs != nil {
		observers = append(observers, obs)
	}

	a.planner = planner.New(
		planner.LoadConfig(cfg.Planner),
		ollama.NewAnalyzer(llmClient, a.log),
		ollama.NewCompiler(llmClient, a.log),
		search.NewFailSoft(backend, a.log),
		a.log,
		observers...,
	)

	a.log.Info("planner ready", map[string]interface{}{
		"searchBackend": backend.Name(),
		"cache":         cfg.Search.Cache.Enabled,
		"audit":         a.auditLog != nil,
		"model":         cfg.APIs.Ollama.Model,
	})
	return a, nil
}

// searchBackend builds the configured backend and wraps it in the Redis cache
// when enabled. Unreachable stores only produce warnings; search failures
// surface to users as diagnostic snippets.
func (a *app) searchBackend(ctx context.Context, embedder elastic.Embedder) (search.Backend, error) {
	var backend search.Backend

	switch a.cfg.Search.Backend {
	case config.SearchBackendElastic:
		es, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch, nil)
		if err != nil {
			return nil, err
		}
		if err := retryWithBackoff(ctx, func() error { return es.Ping(ctx) }, 5, 2*time.Second, a.log, "Elasticsearch connection"); err != nil {
			a.log.Warn("elasticsearch not reachable, continuing", map[string]interface{}{"error": err.Error()})
		}
		a.pingers = append(a.pingers, es)
		backend = elastic.NewClient(elastic.LoadConfig(a.cfg.Search.Elastic), es.Client, embedder, a.log)
	default:
		backend = brave.NewClient(brave.LoadConfig(a.cfg.APIs.Brave), a.log)
	}

	if a.cfg.Search.Cache.Enabled {
		rc := database.NewRedis(a.cfg.Database.Redis)
		if err := retryWithBackoff(ctx, func() error { return rc.Ping(ctx) }, 5, time.Second, a.log, "Redis connection"); err != nil {
			a.log.Warn("redis not reachable, cache will miss until it is", map[string]interface{}{"error": err.Error()})
		}
		a.pingers = append(a.pingers, rc)
		a.closers = append(a.closers, rc.Close)
		backend = cache.New(backend, rc.Client, config.GetDuration(a.cfg.Search.Cache.TTL), a.log)
	}
	return backend, nil
}

// auditObserver connects to Postgres when configured. The planner runs
// without a query log if the database cannot be reached.
func (a *app) auditObserver(ctx context.Context) planner.Observer {
	if !a.cfg.Database.Postgres.Enabled() {
		return nil
	}

	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(a.cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 5, 2*time.Second, a.log, "PostgreSQL connection")
	if err != nil {
		a.log.Warn("query log disabled", map[string]interface{}{"error": err.Error()})
		if pg != nil {
			_ = pg.Close()
		}
		return nil
	}

	store := audit.NewStore(pg.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		a.log.Warn("query log disabled", map[string]interface{}{"error": err.Error()})
		_ = pg.Close()
		return nil
	}

	a.auditLog = store
	a.pingers = append(a.pingers, pg)
	a.closers = append(a.closers, pg.Close)
	return audit.NewObserver(store, 5*time.Second, a.log)
}

// queryLog avoids handing the API a typed nil.
func (a *app) queryLog() api.QueryLog {
	if a.auditLog == nil {
		return nil
	}
	return a.auditLog
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	a.obs.Shutdown()
	_ = a.zapLog.Sync()
}

// retryWithBackoff runs operation up to maxRetries times, doubling the delay
// between attempts.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	attempts := uint(maxRetries)

	err := retry.Do(
		operation,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(initialDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= attempts {
				return
			}
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     n + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": (initialDelay << n).String(),
			})
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
