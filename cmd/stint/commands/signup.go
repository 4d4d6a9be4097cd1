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
	signupEmail    string
	signupPassword string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	Long: `Create an account and start a session.

Email and password are prompted for when not given as flags; the
password is never echoed. The session token is stored at the configured
session file so later commands run as you.

Examples:
  # Interactive
  stint signup

  # Scripted
  stint signup --email ada@example.com --password "$STINT_PASSWORD"`,
	RunE: runSignup,
}

func init() {
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&signupPassword, "password", "", "Account password (prompted when omitted)")
	rootCmd.AddCommand(signupCmd)
}

func runSignup(cmd *cobra.Command, args []string) error {
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

	email, password, err := promptCredentials(signupEmail, signupPassword)
	if err != nil {
		return err
	}

	if err := mgr.SignUp(ctx, email, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			return printer.Error(
				"email already registered",
				fmt.Sprintf("An account for %s already exists.", email),
				[]string{"Sign in instead:\n  stint login"},
			)
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrPasswordTooShort):
			return printer.Error("invalid credentials", err.Error(), nil)
		default:
			return printer.Error(
				"sign-up failed",
				fmt.Sprintf("Error: %v", err),
				[]string{"Check that Redis is reachable at the configured redis_url."},
			)
		}
	}

	printer.Success("Signed up as %s", mgr.Current().User.Email)
	printer.Info("Session saved to %s\n", cfg.SessionFile)
	return nil
}
