package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/tradeledger/backend/internal/app"
)

var version = "dev"

// session is the runtime and services shared by one command invocation.
type session struct {
	rt  *app.Runtime
	svc *app.Services
}

func (s *session) close() {
	_ = s.svc.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.rt.Close(ctx)
}

// openSession loads .env and config, connects and builds the services.
func openSession(ctx context.Context, envFile string) (*session, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := app.LoadConfig(files...)
	if err != nil {
		return nil, err
	}
	rt, err := app.NewRuntime(ctx, cfg, app.Options{Component: "cli", SkipTelemetry: true})
	if err != nil {
		return nil, err
	}
	svc, err := app.NewServices(ctx, rt, app.ServiceOptions{})
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return &session{rt: rt, svc: svc}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the receivables ledger",
		Long: `ledgerctl runs maintenance tasks against the receivables database:
reconciliation, exchange-rate lookups, currency seeding and queue inspection.

Configuration is read from config.toml and LEDGER_* environment variables.
A .env file in the working directory is loaded first when present.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", "", "Load environment variables from this file instead of .env")

	root.AddCommand(
		newReconcileCmd(),
		newRateCmd(),
		newSeedCurrenciesCmd(),
		newQueueCmd(),
	)
	return root
}

func envFile(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("env-file")
	return f
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
