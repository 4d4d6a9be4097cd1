package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/printer"
	"github.com/stintapp/stint/pkg/tracker"
)

var (
	editCompany string
	editRole    string
	editStatus  string
	editNotes   string
)

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit an application",
	Long: `Edit fields of a stored application. Only the flags you pass change;
everything else keeps its stored value.

ID may be a full ID or a unique prefix of at least 6 characters.

Examples:
  # Move an application to the interview stage
  stint edit 3f2a91bc --status interview

  # Rewrite the notes (an empty value clears them)
  stint edit 3f2a91bc --notes ""`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editCompany, "company", "", "Company name")
	editCmd.Flags().StringVar(&editRole, "role", "", "Role title")
	editCmd.Flags().StringVar(&editStatus, "status", "", "Stage")
	editCmd.Flags().StringVar(&editNotes, "notes", "", "Free-form notes")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
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

	// Seed the draft from the stored record, then overlay only the
	// flags that were actually set so "--notes ''" clears notes.
	draft := tracker.Draft{
		Company: app.Company,
		Role:    app.Role,
		Status:  app.Status,
		Notes:   app.Notes,
	}
	if cmd.Flags().Changed("company") {
		draft.Company = editCompany
	}
	if cmd.Flags().Changed("role") {
		draft.Role = editRole
	}
	if cmd.Flags().Changed("status") {
		draft.Status = tracker.Status(editStatus)
	}
	if cmd.Flags().Changed("notes") {
		draft.Notes = editNotes
	}

	updated, err := client.Update(ctx, user.ID, id, draft)
	if err != nil {
		if tracker.IsValidationError(err) {
			return printer.Error("invalid application", err.Error(), nil)
		}
		return printer.Error(
			"failed to update application",
			fmt.Sprintf("Error: %v", err),
			[]string{"Check that Redis is reachable at the configured redis_url."},
		)
	}

	printer.Success("Updated %s @ %s", updated.Role, updated.Company)
	return nil
}
