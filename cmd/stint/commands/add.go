package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/printer"
	"github.com/stintapp/stint/pkg/tracker"
)

var (
	addCompany string
	addRole    string
	addStatus  string
	addNotes   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an application",
	Long: `Record a new internship application.

Status defaults to "applied". Valid statuses: applied,
online_assessment, interview, offer, rejected.

Examples:
  # Minimal
  stint add --company "Acme" --role "Backend Intern"

  # With stage and notes
  stint add --company "Zen Gardens" --role "Data Intern" \
    --status interview --notes "phone screen Friday"`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addCompany, "company", "", "Company name (required)")
	addCmd.Flags().StringVar(&addRole, "role", "", "Role title (required)")
	addCmd.Flags().StringVar(&addStatus, "status", "", "Stage (defaults to applied)")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")
	addCmd.MarkFlagRequired("company")
	addCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if addCompany == "" || addRole == "" {
		return printer.Error(
			"required flags missing",
			"Both --company and --role are required.",
			[]string{"Example:\n  stint add --company \"Acme\" --role \"Backend Intern\""},
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

	app, err := client.Create(ctx, user.ID, tracker.Draft{
		Company: addCompany,
		Role:    addRole,
		Status:  tracker.Status(addStatus),
		Notes:   addNotes,
	})
	if err != nil {
		if tracker.IsValidationError(err) {
			return printer.Error("invalid application", err.Error(), nil)
		}
		return printer.Error(
			"failed to add application",
			fmt.Sprintf("Error: %v", err),
			[]string{"Check that Redis is reachable at the configured redis_url."},
		)
	}

	printer.Success("Added %s @ %s", app.Role, app.Company)
	printer.Info("ID: %s\n", app.ID)
	return nil
}
