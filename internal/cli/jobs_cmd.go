package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garnizeh/jobboard/internal/jobs"
	"github.com/garnizeh/jobboard/pkg/models"
)

func newJobsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and assign jobs",
	}
	cmd.AddCommand(newJobsListCmd(e))
	cmd.AddCommand(newJobsAssignCmd(e))
	return cmd
}

func newJobsListCmd(e *env) *cobra.Command {
	var f models.JobFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in store order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, closeFn, err := e.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			list, err := repo.ListJobs(cmd.Context(), f)
			if err != nil {
				return err
			}
			if e.output == "json" {
				return printJSON(cmd.OutOrStdout(), list)
			}
			tw := newTabWriter(cmd)
			fmt.Fprintln(tw, "ID\tNAME\tCITY\tSTATUS\tCONTRACTOR")
			for _, j := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", j.JobID, j.JobName, j.City, j.Status, j.AssignedContractorID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "Only jobs with this status")
	cmd.Flags().StringVar(&f.ProfileID, "profile", "", "Only jobs posted by this profile")
	cmd.Flags().StringVar(&f.AssignedContractorID, "contractor", "", "Only jobs assigned to this contractor")
	return cmd
}

func newJobsAssignCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <job-id> <contractor-id>",
		Short: "Assign a job to a contractor and restart its progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeFn, err := e.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			j, err := jobs.NewManager(repo, e.logger).Assign(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if e.output == "json" {
				return printJSON(cmd.OutOrStdout(), j)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s assigned to %s (%s)\n", j.JobID, j.AssignedContractorID, j.Status)
			return nil
		},
	}
}
