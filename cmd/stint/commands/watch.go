package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/dashboard"
	"github.com/stintapp/stint/internal/printer"
)

var (
	watchStatus string
	watchSearch string
	watchSort   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard in the terminal",
	Long: `Render the dashboard table and redraw it whenever the collection
changes, from any surface: another terminal, the stintd API, anywhere.

The view selection works like 'stint list'. Stop with Ctrl+C.

Examples:
  # Watch everything
  stint watch

  # Watch offers sorted by company
  stint watch --status offer --sort company-az`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchStatus, "status", "", "Filter by status")
	watchCmd.Flags().StringVar(&watchSearch, "search", "", "Substring match over company, role and notes")
	watchCmd.Flags().StringVar(&watchSort, "sort", "", "Sort order")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	q, err := buildQuery(watchStatus, watchSearch, watchSort)
	if err != nil {
		return err
	}

	ctrl, err := dashboard.NewController(client, user.ID)
	if err != nil {
		return fmt.Errorf("failed to create dashboard controller: %w", err)
	}
	ctrl.SetFilter(q.Filter)
	ctrl.SetSearch(q.Search)
	ctrl.SetSort(q.Sort)

	states, stopWatching := ctrl.Watch()
	defer stopWatching()

	runDone := make(chan error, 1)
	go func() {
		runDone <- ctrl.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	printer.Step("Connecting to the store...\n")

	for {
		select {
		case <-sigCh:
			cancel()
			<-runDone
			fmt.Println()
			printer.Info("Stopped watching.\n")
			return nil

		case err := <-runDone:
			if err != nil {
				return printer.Error(
					"watch failed",
					fmt.Sprintf("Error: %v", err),
					[]string{"Check that Redis is reachable at the configured redis_url."},
				)
			}
			return nil

		case st := <-states:
			if !st.Ready {
				continue
			}
			renderWatchFrame(st, user.Email)
		}
	}
}

// renderWatchFrame clears the terminal and redraws the table. Frames
// arrive on a latest-value channel, so a slow terminal only skips
// intermediate states, never renders stale ones.
func renderWatchFrame(st dashboard.State, email string) {
	fmt.Print("\033[2J\033[H")
	printer.Info("Signed in as %s\n", email)
	dashboard.FormatTable(os.Stdout, st.View, time.Now())
	fmt.Println()
	printer.Info("Watching for changes. Press Ctrl+C to stop.\n")
}
