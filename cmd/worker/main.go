package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeledger/backend/internal/app"
	"github.com/tradeledger/backend/internal/infrastructure/jobs"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	rt, err := app.NewRuntime(ctx, cfg, app.Options{Component: "worker", RequireRedis: true})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = rt.Close(closeCtx)
	}()
	log := rt.Logger

	svc, err := app.NewServices(ctx, rt, app.ServiceOptions{Documents: true})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	cron, err := jobs.ReconcileSchedule(cfg.Worker.ReconcileCron)
	if err != nil {
		return fmt.Errorf("build reconcile schedule: %w", err)
	}

	handlers := jobs.NewHandlers(svc.Documents, svc.Reconciliation, rt.Metrics, log)
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   jobs.RedisOpt(cfg.Redis),
		Concurrency: cfg.Worker.Concurrency,
		Handlers:    handlers.TaskHandlers(),
		Cron:        cron,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	rt.Metrics.StartPeriodicCollection(ctx, time.Minute)
	log.Info("Worker starting",
		zap.Int("concurrency", cfg.Worker.Concurrency),
		zap.String("reconcile_cron", cfg.Worker.ReconcileCron),
	)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Worker stopped with error", zap.Error(err))
		return err
	}
	log.Info("Worker exited")
	return nil
}
