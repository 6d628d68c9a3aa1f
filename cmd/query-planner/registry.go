// cmd/query-planner/registry.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"query-planner/internal/common/config"
	processquery "query-planner/internal/workers/process-query"
	"query-planner/pkg/registry"
)

func registryCmd(load configLoader) *cobra.Command {
	var (
		out   string
		check string
	)

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Write or verify the activity registry entry for the job worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			activities, err := activities(cfg)
			if err != nil {
				return err
			}

			if check != "" {
				reg, err := registry.LoadRegistry(check)
				if err != nil {
					return err
				}
				drifted, err := reg.Drift(activities)
				if err != nil {
					return err
				}
				if len(drifted) > 0 {
					return fmt.Errorf("registry %s is out of date for: %s", check, strings.Join(drifted, ", "))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registry %s is up to date\n", check)
				return nil
			}

			reg := &registry.ActivityRegistry{Version: cfg.App.Version, Activities: activities}
			if err := reg.Save(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d activities to %s\n", len(activities), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "configs/activity-registry.json", "where to write the registry")
	cmd.Flags().StringVar(&check, "check", "", "verify an existing registry file instead of writing one")
	return cmd
}

func activities(cfg *config.Config) ([]registry.Activity, error) {
	wcfg := config.GetWorkerConfig(cfg, processquery.TaskType)
	a, err := processquery.Activity(processquery.LoadConfig(wcfg), wcfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	return []registry.Activity{a}, nil
}
