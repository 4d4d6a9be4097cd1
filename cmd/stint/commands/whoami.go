package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/printer"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
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
		return printer.Error(
			"not signed in",
			"No active session for this configuration.",
			[]string{
				"Sign in:\n  stint login",
				"Create an account:\n  stint signup",
			},
		)
	}

	fmt.Println(st.User.Email)
	printer.Info("User ID:     %s\n", st.User.ID)
	printer.Info("Environment: %s\n", cfg.Environment)
	return nil
}
