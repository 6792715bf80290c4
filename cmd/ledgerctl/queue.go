package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"github.com/tradeledger/backend/internal/app"
	"github.com/tradeledger/backend/internal/infrastructure/jobs"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect background task queues",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print task counts per queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var files []string
			if f := envFile(cmd); f != "" {
				files = append(files, f)
			}
			cfg, err := app.LoadConfig(files...)
			if err != nil {
				return err
			}
			inspector := asynq.NewInspector(jobs.RedisOpt(cfg.Redis))
			defer func() { _ = inspector.Close() }()

			stats, err := jobs.QueueStats(inspector)
			if err != nil {
				return fmt.Errorf("read queue stats: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tARCHIVED\tPAUSED")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%t\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived, s.Paused)
			}
			return tw.Flush()
		},
	})
	return cmd
}
