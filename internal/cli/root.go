// Package cli implements jobboardctl, which works on the configured storage
// directly. Run it while the server is stopped: each process keeps its own
// table snapshots.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/garnizeh/jobboard/internal/config"
	"github.com/garnizeh/jobboard/internal/repository/tabular"
	"github.com/garnizeh/jobboard/internal/storage"
)

var version = "dev"

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// env is what every subcommand works with once the root has resolved the
// configuration.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	output string
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		output     string
		verbose    bool
	)
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "jobboardctl",
		Short:         "Operate a jobboard data store",
		Long:          "Initialize, seed, back up and inspect the tables behind a jobboard server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
			}
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			e.cfg = cfg
			e.logger = cfg.NewLogger(cmd.ErrOrStderr())
			e.output = output
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML file")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newInitCmd(e))
	rootCmd.AddCommand(newSeedCmd(e))
	rootCmd.AddCommand(newBackupCmd(e))
	rootCmd.AddCommand(newRestoreCmd(e))
	rootCmd.AddCommand(newJobsCmd(e))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "jobboardctl version %s\n", version)
			return err
		},
	}
}

// openRepo opens the configured storage; the caller must run the returned
// close function.
func (e *env) openRepo(ctx context.Context) (*tabular.Repo, func() error, error) {
	return storage.OpenRepo(ctx, e.cfg.Storage, e.logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
