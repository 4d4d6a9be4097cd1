package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/printer"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Long: `Revoke the current session and remove the stored token.

The local token is cleared even when the store cannot be reached; an
unrevoked server session expires on its own.`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}

	mgr, svc, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	st := mgr.Current()
	if !st.SignedIn() {
		printer.Info("Not signed in.\n")
		return nil
	}
	email := st.User.Email

	if err := mgr.SignOut(ctx); err != nil {
		printer.Warning("Could not revoke the session on the store: %v", err)
	}

	printer.Success("Signed out %s", email)
	return nil
}
