package main

import (
	"fmt"
	"os"

	"taskflow/backend/internal/config"
	"taskflow/backend/internal/server"

	"github.com/spf13/cobra"
)

// newApp is replaced in tests.
var newApp = func() (*server.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return server.NewApp(cfg)
}

func withApp(run func(cmd *cobra.Command, app *server.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()
		return run(cmd, app, args)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskflowctl",
		Short:         "Administrative tooling for the taskflow backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: withApp(func(cmd *cobra.Command, app *server.App, args []string) error {
				if err := app.DB.Migrate(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "lock <username>",
			Short: "Lock an account for the configured lock duration",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, app *server.App, args []string) error {
				if err := app.Auth.LockAccount(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s locked\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "unlock <username>",
			Short: "Clear an account lock and its failed attempts",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, app *server.App, args []string) error {
				if err := app.Auth.UnlockAccount(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s unlocked\n", args[0])
				return nil
			}),
		},
		newAttemptsCmd(),
		&cobra.Command{
			Use:   "enable <username>",
			Short: "Enable an account",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, app *server.App, args []string) error {
				if err := app.Auth.EnableAccount(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s enabled\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "disable <username>",
			Short: "Disable an account",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, app *server.App, args []string) error {
				if err := app.Auth.DisableAccount(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s disabled\n", args[0])
				return nil
			}),
		},
	)
	return root
}

func newAttemptsCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "attempts <username>",
		Short: "Show, or reset with --reset, the failed login attempts of an account",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *server.App, args []string) error {
			ctx := cmd.Context()
			if reset {
				if err := app.Auth.ResetFailedAttempts(ctx, args[0]); err != nil {
					return err
				}
			}
			attempts, err := app.Auth.GetFailedAttempts(ctx, args[0])
			if err != nil {
				return err
			}
			locked, err := app.Auth.IsAccountLocked(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d failed attempts, locked=%t\n", args[0], attempts, locked)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "reset the failed attempt counter first")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
