package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"dotfiles-installer/internal/version"
	"dotfiles-installer/pkg/config"
	"dotfiles-installer/pkg/filesystem"
	"dotfiles-installer/pkg/logging"
	"dotfiles-installer/pkg/stage"
	"dotfiles-installer/pkg/stages"
	"dotfiles-installer/pkg/tools"
	"dotfiles-installer/pkg/ui"
)

// Exit codes as seen by scripts wrapping the installer.
const (
	exitOK          = 0
	exitConfigError = 1
	exitAborted     = 2
)

// exitError carries the process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

// newRootCmd builds the CLI: the stage registry is constructed here and
// handed to both flag generation and the run loop.
func newRootCmd() (*cobra.Command, error) {
	var (
		verbosity  int
		email      string
		confirmAll bool
	)

	registry := stage.NewRegistry()
	prompter := ui.Default()
	deps := stages.Deps{
		FS:       filesystem.NewOS(),
		Prompter: prompter,
	}

	rootCmd := &cobra.Command{
		Use:   "dotfiles-installer",
		Short: "Install and reconcile a personal environment",
		Long: `dotfiles-installer bootstraps a personal environment: it writes and
symlinks configuration files into the home directory and installs
optional third-party tooling, as a sequence of named stages that can be
individually skipped or selected. Re-running it when nothing changed
performs no filesystem mutations.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			skipped, only := registry.Selection()

			cfg, err := config.FromEnv(email, skipped, only, confirmAll)
			if err != nil {
				log.Error().Err(err).Msg("Configuration failed")
				return &exitError{code: exitConfigError, err: err}
			}

			if missing := tools.MissingRequired(); len(missing) > 0 {
				names := make([]string, len(missing))
				for i, tool := range missing {
					names[i] = tool.Name
				}
				log.Error().Strs("tools", names).Msg("Required tools are missing")
				return &exitError{code: exitAborted}
			}

			if err := registry.RunAll(cmd.Context(), cfg, prompter); err != nil {
				if cmd.Context().Err() != nil {
					return &exitError{code: exitAborted, err: context.Canceled}
				}
				return &exitError{code: exitConfigError, err: err}
			}
			if cmd.Context().Err() != nil {
				return &exitError{code: exitAborted, err: context.Canceled}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v DEBUG, -vv TRACE)")
	rootCmd.Flags().StringVar(&email, "email", "", "Email address used for the git identity and SSH key")
	rootCmd.Flags().BoolVarP(&confirmAll, "confirm-all-stages", "y", false, "Suppress all per-stage confirmations")

	if err := stages.RegisterAll(registry, deps); err != nil {
		return nil, err
	}
	registry.AddFlags(rootCmd.Flags())

	rootCmd.AddCommand(versionCmd)

	return rootCmd, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dotfiles-installer version %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	},
}
