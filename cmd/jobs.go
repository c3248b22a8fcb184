package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/routepulse/collector-cli/internal/model"
	"github.com/routepulse/collector-cli/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List scrape job logs",
	Long:  "List per-route scrape attempts with status, record counts, and errors, newest first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		status, _ := cmd.Flags().GetString("status")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		jobs, err := st.ListJobs(ctx, store.JobFilter{
			Status: model.JobStatus(status),
			Source: source,
			Limit:  limit,
		})
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			cmd.Println("No jobs found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSOURCE\tROUTE\tSTATUS\tRECORDS\tERROR")
		for _, j := range jobs {
			errText := j.Error
			if len(errText) > 60 {
				errText = errText[:57] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				j.StartedAt.Format("2006-01-02 15:04:05"),
				j.Source, j.RouteLabel, j.Status, j.RecordsIngested, errText)
		}
		return w.Flush()
	},
}

func init() {
	jobsCmd.Flags().String("status", "", "filter by status: pending, success, partial, failed")
	jobsCmd.Flags().String("source", "", "filter by source name")
	jobsCmd.Flags().Int("limit", 50, "max rows to show")
	rootCmd.AddCommand(jobsCmd)
}
