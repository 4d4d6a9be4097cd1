package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/dashboard"
	"github.com/stintapp/stint/internal/printer"
	"github.com/stintapp/stint/internal/view"
)

var (
	listStatus string
	listSearch string
	listSort   string
	listOutput string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications",
	Long: `List applications as a table or JSON.

The view is filtered, searched and sorted like the live dashboard:
counts always cover the whole collection, whatever the filter.

Filters: all (default), applied, online_assessment, interview, offer,
rejected.
Sort orders: newest (default), oldest, company-az, company-za.

Examples:
  # Everything, newest first
  stint list

  # Interviews mentioning phone screens
  stint list --status interview --search "phone screen"

  # JSON for scripting
  stint list --output json | jq '.counts'`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Substring match over company, role and notes")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort order")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table or json")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if listOutput != "table" && listOutput != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutput),
			[]string{"Valid formats: table, json"},
		)
	}

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	_, svc, user, err := requireUser(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	client, err := openTracker(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	q, err := buildQuery(listStatus, listSearch, listSort)
	if err != nil {
		return err
	}

	apps, err := client.List(ctx, user.ID)
	if err != nil {
		return printer.Error(
			"failed to list applications",
			fmt.Sprintf("Error: %v", err),
			[]string{"Check that Redis is reachable at the configured redis_url."},
		)
	}

	state := view.Derive(apps, q)

	if listOutput == "json" {
		return dashboard.FormatJSON(os.Stdout, state)
	}

	dashboard.FormatTable(os.Stdout, state, time.Now())
	return nil
}
