// cmd/query-planner/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"query-planner/internal/common/config"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "query-planner",
		Short:         "Answer questions from web and internal search through a local LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default configs/config.yaml)")

	load := func() (*config.Config, error) {
		if cfgPath != "" {
			return config.LoadFromFile(cfgPath)
		}
		return config.Load()
	}

	root.AddCommand(serveCmd(load), workerCmd(load), askCmd(load), registryCmd(load), migrateCmd(load))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)
