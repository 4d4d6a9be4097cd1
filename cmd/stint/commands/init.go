package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stintapp/stint/internal/config"
	"github.com/stintapp/stint/internal/printer"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a starter configuration file with commented defaults.

The file is written to ~/.stint.yml unless --config points elsewhere.
Existing files are never overwritten without --force.

Examples:
  # Write ~/.stint.yml
  stint init

  # Write somewhere else
  stint init --config ./stint.yml

  # Replace an existing file
  stint init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to locate home directory: %w", err)
		}
	}

	if err := config.WriteStarter(path, forceInit); err != nil {
		return printer.Error(
			"failed to write config",
			err.Error(),
			[]string{"Overwrite the existing file:\n  stint init --force"},
		)
	}

	printer.Success("Wrote %s", path)
	printer.Info("Next steps:\n")
	printer.Info("  1. Review the config and point redis_url at your store\n")
	printer.Info("  2. Create an account: stint signup\n")
	printer.Info("  3. Add your first application: stint add --company \"Acme\" --role \"Backend Intern\"\n")
	return nil
}
