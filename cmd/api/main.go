package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dejobratic/idemorders/internal/config"
	"github.com/dejobratic/idemorders/internal/database"
	"github.com/dejobratic/idemorders/internal/events"
	"github.com/dejobratic/idemorders/internal/orders/adapters"
	httpadapter "github.com/dejobratic/idemorders/internal/orders/adapters/http"
	ordersapp "github.com/dejobratic/idemorders/internal/orders/app"
	"github.com/dejobratic/idemorders/internal/orders/metrics"
	"github.com/dejobratic/idemorders/internal/orders/ports"
	"github.com/dejobratic/idemorders/internal/orders/storage"
	"github.com/dejobratic/idemorders/internal/telemetry"
)

const meterName = "github.com/dejobratic/idemorders"

func main() {
	if err := run(); err != nil {
		slog.Error("orders api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		return err
	}
	logger := telemetry.NewLogger(os.Stdout, level).With(
		"service", cfg.Service.Name,
		"version", cfg.Service.Version,
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := telemetry.Meter(meterName)

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	orderMetrics, err := metrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	eventMetrics, err := events.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}

	backend, err := storage.Open(ctx, cfg.Database, logger, dbMetrics)
	if err != nil {
		return err
	}
	defer backend.Close()

	publisher, closePublisher, err := newPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	service := ordersapp.NewService(
		backend.Store,
		adapters.NewObservablePublisher(publisher, eventMetrics),
		logger,
		orderMetrics,
	)

	router := httpadapter.NewRouter(
		httpadapter.NewHandler(service, logger),
		httpadapter.NewHealthHandler(backend.Ready, logger),
		httpMetrics,
		logger,
	)
	router.Handle(cfg.HTTP.MetricsPath, promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           otelhttp.NewHandler(router, "orders-api"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "repo_type", cfg.Database.RepoType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")

	return nil
}

// newPublisher returns the NATS JetStream publisher when NATS_URL is set and
// a logging no-op otherwise.
func newPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (ports.EventPublisher, func(), error) {
	if !cfg.Enabled() {
		logger.Info("NATS_URL not set, order events are logged only")
		return events.NewNoopPublisher(logger), func() {}, nil
	}

	nc, js, err := events.Connect(ctx, cfg.URL, cfg.ConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("publishing order events to NATS", "stream", events.StreamName)

	return events.NewNATSPublisher(js), func() { _ = nc.Drain() }, nil
}
