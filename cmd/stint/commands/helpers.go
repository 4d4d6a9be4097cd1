package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/stintapp/stint/internal/auth"
	"github.com/stintapp/stint/internal/config"
	"github.com/stintapp/stint/internal/printer"
	"github.com/stintapp/stint/internal/resolver"
	"github.com/stintapp/stint/internal/session"
	"github.com/stintapp/stint/internal/view"
	"github.com/stintapp/stint/pkg/tracker"
)

// loadCLIConfig resolves the active configuration. An explicit --config
// path must exist; the default path falls back to built-in defaults so
// a fresh install works before 'stint init'.
func loadCLIConfig() (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, printer.Error(
				"failed to load config",
				fmt.Sprintf("Could not load %s: %v", configPath, err),
				[]string{"Write a starter config:\n  stint init"},
			)
		}
		return cfg, nil
	}

	path, err := config.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, printer.Error(
			"failed to load config",
			fmt.Sprintf("Could not load %s: %v", path, err),
			[]string{"Fix or regenerate it:\n  stint init --force"},
		)
	}
	return cfg, nil
}

// openTracker connects an application store client for the configured
// environment. Caller must Close it.
func openTracker(cfg *config.Config) (*tracker.Client, error) {
	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, printer.Error(
			"invalid Redis URL",
			fmt.Sprintf("Could not parse %q: %v", cfg.RedisURL, err),
			[]string{"Check redis_url in your config:\n  stint init --force"},
		)
	}

	client, err := tracker.NewClient(opts, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to create store client: %w", err)
	}
	return client, nil
}

// openSession builds the session manager for the configured token file
// and settles it. Caller must Close the returned auth service.
func openSession(ctx context.Context, cfg *config.Config) (*session.Manager, *auth.Service, error) {
	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, nil, printer.Error(
			"invalid Redis URL",
			fmt.Sprintf("Could not parse %q: %v", cfg.RedisURL, err),
			[]string{"Check redis_url in your config:\n  stint init --force"},
		)
	}

	svc, err := auth.NewService(opts, cfg.Environment, auth.DefaultSessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	mgr := session.NewManager(svc, session.NewFileTokenStore(cfg.SessionFile))
	if err := mgr.Start(ctx); err != nil {
		svc.Close()
		return nil, nil, printer.Error(
			"failed to resolve session",
			fmt.Sprintf("Could not reach the store at %s: %v", cfg.RedisURL, err),
			[]string{"Check that Redis is running and redis_url is correct."},
		)
	}

	return mgr, svc, nil
}

// requireUser settles the session and insists on a signed-in user.
// Caller must Close the returned auth service.
func requireUser(ctx context.Context, cfg *config.Config) (*session.Manager, *auth.Service, *auth.User, error) {
	mgr, svc, err := openSession(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	st := mgr.Current()
	if !st.SignedIn() {
		svc.Close()
		return nil, nil, nil, printer.Error(
			"not signed in",
			"This command needs a signed-in account.",
			[]string{
				"Sign in:\n  stint login",
				"Create an account:\n  stint signup",
			},
		)
	}

	return mgr, svc, st.User, nil
}

// promptCredentials fills in whichever of email and password was not
// supplied by flags. The password is read without echo when stdin is a
// terminal.
func promptCredentials(email, password string) (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	if password == "" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Print("Password: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return "", "", fmt.Errorf("failed to read password: %w", err)
			}
			password = string(raw)
		} else {
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return "", "", fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
	}

	return email, password, nil
}

// resolveID maps a full ID or unique prefix to a stored record's ID,
// converting resolution failures into printer errors.
func resolveID(ctx context.Context, client *tracker.Client, userID, raw string) (string, error) {
	id, err := resolver.ResolveApplicationID(ctx, client, userID, raw)
	if err != nil {
		switch {
		case resolver.IsNotFoundError(err):
			return "", printer.Error(
				"application not found",
				fmt.Sprintf("No application matches %q.", raw),
				[]string{"List applications:\n  stint list"},
			)
		case resolver.IsAmbiguousError(err):
			var ambig *resolver.AmbiguousError
			errors.As(err, &ambig)
			return "", printer.Error(
				"ambiguous ID prefix",
				resolver.FormatAmbiguousError(ambig),
				[]string{"Use more characters of the ID."},
			)
		default:
			return "", printer.Error("failed to resolve ID", fmt.Sprintf("Error: %v", err), nil)
		}
	}
	return id, nil
}

// buildQuery turns the shared --status/--search/--sort flags into a view
// query, converting bad values into printer errors.
func buildQuery(status, search, sortOrder string) (view.Query, error) {
	filter, err := view.ParseStatusFilter(status)
	if err != nil {
		return view.Query{}, printer.Error(
			"invalid status filter",
			err.Error(),
			nil,
		)
	}

	order, err := view.ParseOrder(sortOrder)
	if err != nil {
		return view.Query{}, printer.Error(
			"invalid sort order",
			err.Error(),
			nil,
		)
	}

	return view.Query{Filter: filter, Search: search, Sort: order}, nil
}
