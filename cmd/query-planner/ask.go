// cmd/query-planner/ask.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"query-planner/internal/models"
)

func askCmd(load configLoader) *cobra.Command {
	var (
		source string
		auto   bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and print the response as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(strings.Join(args, " "), source, auto)
			if err != nil {
				return err
			}

			cfg, err := load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			resp := a.planner.ProcessQuery(ctx, req)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", string(models.DataSourceAll), "data source: ALL, CONFLUENCE or JIRA")
	cmd.Flags().BoolVarP(&auto, "auto", "a", false, "classify the question and pick a strategy")
	return cmd
}

func buildRequest(question, source string, auto bool) (models.QueryRequest, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.QueryRequest{}, fmt.Errorf("question must not be empty")
	}
	ds, ok := models.ParseDataSource(source)
	if !ok {
		return models.QueryRequest{}, fmt.Errorf("unknown data source %q", source)
	}
	return models.QueryRequest{Query: question, DataSource: ds, AutoDiscovery: auto}, nil
}
