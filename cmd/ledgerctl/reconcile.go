package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tradeledger/backend/internal/domain/receivable"
)

// errUnhealthy makes the process exit non-zero when drift is found.
var errUnhealthy = errors.New("ledger is not reconciled")

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare stored charges and totals with allocation rows",
		Long: `Reconcile recomputes payment and invoice bank charges from allocation rows,
checks balances and ledger aggregates, and reports every drift above 0.01.
Nothing is modified.`,
		Example: `  # Run locally and print the report
  ledgerctl reconcile

  # Hand the run to the worker instead
  ledgerctl reconcile --enqueue`,
		RunE: runReconcile,
	}
	cmd.Flags().Bool("enqueue", false, "Queue the run for the worker instead of running it here")
	cmd.Flags().Bool("fail-on-drift", true, "Exit non-zero when the report is unhealthy")
	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	enqueue, _ := cmd.Flags().GetBool("enqueue")
	failOnDrift, _ := cmd.Flags().GetBool("fail-on-drift")

	s, err := openSession(ctx, envFile(cmd))
	if err != nil {
		return err
	}
	defer s.close()

	if enqueue {
		if s.svc.Queue == nil {
			return errors.New("redis is unavailable, cannot enqueue")
		}
		info, err := s.svc.Queue.EnqueueReconcile(ctx)
		if err != nil {
			return fmt.Errorf("enqueue reconcile: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "queued %s on %s\n", info.ID, info.Queue)
		return nil
	}

	report, err := s.svc.Reconciliation.Run(ctx)
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	return reportOutcome(report, failOnDrift)
}

func reportOutcome(report *receivable.ReconciliationReport, failOnDrift bool) error {
	if report.Healthy || !failOnDrift {
		return nil
	}
	return fmt.Errorf("%w: %d drift(s)", errUnhealthy, report.DriftCount())
}
