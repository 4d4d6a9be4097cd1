package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/dashboard"
	"github.com/stintapp/stint/internal/printer"
	"github.com/stintapp/stint/pkg/tracker"
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one application as JSON",
	Long: `Display the complete stored record of a single application as
pretty-printed JSON.

ID may be a full ID or a unique prefix of at least 6 characters.

Examples:
  # Inspect a record
  stint show 3f2a91bc

  # Extract one field
  stint show 3f2a91bc | jq -r '.notes'`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	id, err := resolveID(ctx, client, user.ID, args[0])
	if err != nil {
		return err
	}

	app, err := client.Get(ctx, user.ID, id)
	if err != nil {
		if tracker.IsNotFound(err) {
			return printer.Error(
				"application not found",
				fmt.Sprintf("No application matches %q.", args[0]),
				[]string{"List applications:\n  stint list"},
			)
		}
		return printer.Error(
			"failed to read application",
			fmt.Sprintf("Error: %v", err),
			[]string{"Check that Redis is reachable at the configured redis_url."},
		)
	}

	return dashboard.FormatSingleJSON(os.Stdout, app)
}
