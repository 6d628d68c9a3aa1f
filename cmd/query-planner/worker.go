// cmd/query-planner/worker.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"query-planner/internal/api"
	"query-planner/internal/common/camunda"
	"query-planner/internal/common/config"
	processquery "query-planner/internal/workers/process-query"
)

func workerCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the Zeebe job worker for process-query tasks",
		Long:  "Runs the process-query job worker. The REST API keeps serving /health, /ready and /metrics alongside it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := config.ValidateForWorker(cfg, processquery.TaskType); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			zb, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(cfg.Camunda), a.log)
			if err != nil {
				return err
			}
			defer zb.Close()
			a.log.Info("Zeebe client connected successfully", nil)

			wcfg := config.GetWorkerConfig(cfg, processquery.TaskType)
			handler := processquery.NewHandler(processquery.LoadConfig(wcfg), a.planner, a.log)
			w := camunda.NewWorker(zb.GetClient(), processquery.TaskType, wcfg, handler, a.log)
			defer w.Stop()

			pingers := append(a.pingers, zb)
			srv := api.NewServer(cfg.Server, a.planner, a.queryLog(), a.log, pingers...)
			return runServer(ctx, srv, cfg.Server, a)
		},
	}
}
