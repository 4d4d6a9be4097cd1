package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/auth"
	"github.com/stintapp/stint/internal/printer"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to an existing account",
	Long: `Sign in and store the session token at the configured session file.

Email and password are prompted for when not given as flags; the
password is never echoed.

Examples:
  # Interactive
  stint login

  # Scripted
  stint login --email ada@example.com --password "$STINT_PASSWORD"`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
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

	if st := mgr.Current(); st.SignedIn() {
		return printer.Error(
			"already signed in",
			fmt.Sprintf("You are signed in as %s.", st.User.Email),
			[]string{"Sign out first:\n  stint logout"},
		)
	}

	email, password, err := promptCredentials(loginEmail, loginPassword)
	if err != nil {
		return err
	}

	if err := mgr.SignIn(ctx, email, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return printer.Error(
				"sign-in failed",
				"Invalid email or password.",
				[]string{"Create an account:\n  stint signup"},
			)
		}
		return printer.Error(
			"sign-in failed",
			fmt.Sprintf("Error: %v", err),
			[]string{"Check that Redis is reachable at the configured redis_url."},
		)
	}

	printer.Success("Signed in as %s", mgr.Current().User.Email)
	return nil
}
