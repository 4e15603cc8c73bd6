package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garnizeh/jobboard/internal/backup"
	"github.com/garnizeh/jobboard/internal/repository/tabular"
	"github.com/garnizeh/jobboard/internal/seed"
)

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create every table that does not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, closeFn, err := e.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			for _, s := range tabular.Schemas() {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s ready\n", s.Name)
			}
			return nil
		},
	}
}

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo profiles if no profile exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, closeFn, err := e.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			seeded, err := seed.Demo(cmd.Context(), repo, e.logger)
			if err != nil {
				return err
			}
			if e.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"seeded": seeded})
			}
			if seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "created %d demo profiles\n", len(seed.DemoProfiles()))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "profiles already present, nothing seeded")
			}
			return nil
		},
	}
}

func newBackupCmd(e *env) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot every table into the backup directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, closeFn, err := e.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			svc := backup.New(e.cfg.Backup.Dir, repo.Tables(), e.logger)
			name, err := svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if keep > 0 {
				if err := svc.Prune(keep); err != nil {
					return err
				}
			}
			if e.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"snapshot": name})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s written\n", name)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "Keep only the newest N snapshots (0 keeps all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := backup.New(e.cfg.Backup.Dir, nil, e.logger).List()
			if err != nil {
				return err
			}
			if e.output == "json" {
				if names == nil {
					names = []string{}
				}
				return printJSON(cmd.OutOrStdout(), names)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	})
	return cmd
}

func newRestoreCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot>",
		Short: "Replace every table with the content of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeFn, err := e.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := backup.New(e.cfg.Backup.Dir, repo.Tables(), e.logger).Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		},
	}
}

func newTabWriter(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}
