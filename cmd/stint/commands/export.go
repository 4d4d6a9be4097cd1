package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/dashboard"
	"github.com/stintapp/stint/internal/filter"
	"github.com/stintapp/stint/internal/printer"
	"github.com/stintapp/stint/internal/timespec"
	"github.com/stintapp/stint/internal/view"
	"github.com/stintapp/stint/pkg/tracker"
)

var (
	exportFormat  string
	exportSince   string
	exportUntil   string
	exportStatus  string
	exportCompany string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export applications as JSONL or CSV",
	Long: `Export applications for spreadsheets or scripts.

--since and --until bound the creation time. They accept a Go duration
("72h" means 72 hours ago), a date ("2026-08-01", midnight UTC), or an
RFC3339 timestamp. Records still waiting for a store acknowledgement
have no creation time and are skipped by bounded exports.

Examples:
  # Everything, one JSON object per line
  stint export > applications.jsonl

  # Last month's offers as CSV
  stint export --format csv --since 720h --status offer --out offers.csv

  # A fixed window
  stint export --since 2026-06-01 --until 2026-07-01`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "jsonl", "Output format: jsonl or csv")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "Only records created at or after this time")
	exportCmd.Flags().StringVar(&exportUntil, "until", "", "Only records created at or before this time")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "Only records with this status")
	exportCmd.Flags().StringVar(&exportCompany, "company", "", "Only companies matching this glob pattern")
	exportCmd.Flags().StringVarP(&exportOut, "out", "O", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if exportFormat != "jsonl" && exportFormat != "csv" {
		return printer.Error(
			"invalid export format",
			fmt.Sprintf("Unknown format: %s", exportFormat),
			[]string{"Valid formats: jsonl, csv"},
		)
	}

	sinceMS, untilMS, err := timespec.ParseRange(exportSince, exportUntil)
	if err != nil {
		return printer.Error("invalid time range", err.Error(), nil)
	}

	criteria := &filter.Criteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		CompanyGlob:      exportCompany,
	}
	if exportStatus != "" {
		f, err := view.ParseStatusFilter(exportStatus)
		if err != nil {
			return printer.Error("invalid status filter", err.Error(), nil)
		}
		if f != view.FilterAll {
			criteria.Status = tracker.Status(f)
		}
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

	apps, err := client.List(ctx, user.ID)
	if err != nil {
		return printer.Error(
			"failed to list applications",
			fmt.Sprintf("Error: %v", err),
			[]string{"Check that Redis is reachable at the configured redis_url."},
		)
	}

	matched := filter.Apply(apps, criteria)

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return printer.Error(
				"failed to create output file",
				fmt.Sprintf("Could not create %s: %v", exportOut, err),
				nil,
			)
		}
		defer f.Close()
		out = f
	}

	switch exportFormat {
	case "jsonl":
		err = dashboard.FormatJSONL(out, matched)
	case "csv":
		err = dashboard.FormatCSV(out, matched)
	}
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	// Keep stdout clean for piped exports; only decorate file writes
	if exportOut != "" {
		printer.Success("Exported %d of %d applications to %s", len(matched), len(apps), exportOut)
	}
	return nil
}
