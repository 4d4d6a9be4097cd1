package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/printer"
	"github.com/stintapp/stint/pkg/tracker"
)

var (
	rmYes bool
)

var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an application",
	Long: `Delete a stored application after confirmation.

ID may be a full ID or a unique prefix of at least 6 characters.
Deletion cannot be undone; pass --yes to skip the prompt in scripts.

Examples:
  # Interactive
  stint rm 3f2a91bc

  # No prompt
  stint rm 3f2a91bc --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Delete without confirmation")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
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

	if !rmYes {
		if !printer.Confirm("Delete %s @ %s?", app.Role, app.Company) {
			printer.Info("Aborted.\n")
			return nil
		}
	}

	if err := client.Delete(ctx, user.ID, id); err != nil {
		return printer.Error(
			"failed to delete application",
			fmt.Sprintf("Error: %v", err),
			[]string{"Check that Redis is reachable at the configured redis_url."},
		)
	}

	printer.Success("Deleted %s @ %s", app.Role, app.Company)
	return nil
}
