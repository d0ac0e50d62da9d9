package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"marketplace/cmd"
	httpin "marketplace/internal/adapters/in/http"
	"marketplace/internal/adapters/messaging"
	"marketplace/internal/adapters/out/postgres"
	"marketplace/internal/pkg/telemetry"
	"marketplace/migrations"

	"github.com/labstack/gommon/log"
)

const serviceName = "marketplace"

func main() {
	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := newLogger(configs.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: configs.ServiceVersion,
		OTLPEndpoint:   configs.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Error initializing tracing: %v", err)
	}
	metricsHandler, shutdownMetrics, err := telemetry.InitMeterProvider(telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: configs.ServiceVersion,
	})
	if err != nil {
		log.Fatalf("Error initializing metrics: %v", err)
	}

	if err := migrations.Up(configs.DatabaseURL()); err != nil {
		log.Fatalf("Error applying migrations: %v", err)
	}

	conns, err := postgres.Open(configs.DatabaseURL(), postgres.PoolConfig{
		MaxOpenConns:    configs.DBMaxOpenConns,
		MaxIdleConns:    configs.DBMaxIdleConns,
		ConnMaxLifetime: configs.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	app, err := cmd.NewCompositionRoot(configs, conns.Gorm, conns.Sqlx, logger)
	if err != nil {
		log.Fatalf("Error building application: %v", err)
	}

	producer := messaging.NewProducer(configs.KafkaBrokers, configs.KafkaLifecycleTopic, configs.KafkaWriteTimeout)

	jobManager, err := app.CreateJobManager(producer)
	if err != nil {
		log.Fatalf("Error creating jobs: %v", err)
	}
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Error starting jobs: %v", err)
	}

	api, err := httpin.LoadAPIDocument(ctx)
	if err != nil {
		log.Fatalf("Error loading API document: %v", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort),
		Handler:           app.CreateHTTPServer(api, metricsHandler).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), configs.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	jobManager.StopAll()
	if err := producer.Close(); err != nil {
		logger.Error("Kafka producer close failed", "error", err)
	}
	if err := conns.Close(); err != nil {
		logger.Error("Database close failed", "error", err)
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		logger.Error("Meter provider shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Tracer provider shutdown failed", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
