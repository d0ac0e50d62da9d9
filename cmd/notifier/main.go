package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"marketplace/cmd"
	"marketplace/internal/adapters/messaging"
	"marketplace/internal/pkg/telemetry"

	"github.com/labstack/gommon/log"
)

// notifier consumes lifecycle events and records them as notifications.
func main() {
	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
		ServiceName:    "marketplace-notifier",
		ServiceVersion: configs.ServiceVersion,
		OTLPEndpoint:   configs.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Error initializing tracing: %v", err)
	}

	consumer := messaging.NewConsumer(
		configs.KafkaBrokers,
		configs.KafkaLifecycleTopic,
		configs.KafkaConsumerGroup,
		logger,
	)
	notifications := messaging.NewNotificationLogger(logger)

	logger.InfoContext(ctx, "Notifier started", "topic", configs.KafkaLifecycleTopic, "group", configs.KafkaConsumerGroup)
	if err := consumer.Consume(ctx, notifications.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "Consumer stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), configs.ShutdownTimeout)
	defer cancel()

	if err := consumer.Close(); err != nil {
		logger.Error("Kafka consumer close failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Tracer provider shutdown failed", "error", err)
	}
}
