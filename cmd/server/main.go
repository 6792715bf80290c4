package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeledger/backend/internal/app"
	appreceivable "github.com/tradeledger/backend/internal/application/receivable"
	"github.com/tradeledger/backend/internal/interfaces/http/handler"
	"github.com/tradeledger/backend/internal/interfaces/http/middleware"
	"github.com/tradeledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, cfg, app.Options{Component: "api"})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rt.Close(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, "runtime close:", err)
		}
	}()
	log := rt.Logger

	log.Info("Starting ledger API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if cfg.App.Env != "production" {
		if err := rt.DB.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	svc, err := app.NewServices(ctx, rt, app.ServiceOptions{Documents: true, EnqueueDocuments: true})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	rt.Metrics.StartPeriodicCollection(ctx, time.Minute)

	checks := map[string]handler.HealthChecker{"database": rt.DB}
	if rt.Redis != nil {
		checks["redis"] = handler.HealthCheckFunc(func(ctx context.Context) error {
			return rt.Redis.Ping(ctx).Err()
		})
	}

	invoiceOpts := []handler.InvoiceHandlerOption{handler.WithDocuments(svc.Documents)}
	if svc.Queue != nil {
		invoiceOpts = append(invoiceOpts, handler.WithDocumentQueue(svc.Queue))
	}
	handlers := router.Handlers{
		System:         handler.NewSystemHandler(version, checks),
		Currencies:     handler.NewCurrencyHandler(svc.Currencies),
		Customers:      handler.NewCustomerHandler(svc.Customers, svc.Invoices),
		Invoices:       handler.NewInvoiceHandler(svc.Invoices, invoiceOpts...),
		InvoiceStream:  handler.NewInvoiceStreamHandler(appreceivable.NewSnapshotSource(svc.Invoices, cfg.HTTP.SnapshotInterval, log)),
		Payments:       handler.NewPaymentHandler(svc.Payments),
		Rates:          handler.NewRateHandler(svc.Rates),
		Reconciliation: handler.NewReconciliationHandler(svc.Reconciliation),
		Settings:       handler.NewSettingsHandler(svc.Settings),
	}
	if svc.LocalFiles != nil {
		handlers.DocumentFiles = handler.NewDocumentFileHandler(svc.LocalFiles)
	}

	engine := router.New(router.Options{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     rt.Tracer.IsEnabled(),
		},
		Meter:     rt.Meters.Meter("http"),
		Profiling: cfg.Telemetry.ProfilingEnabled,
	}, handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}
