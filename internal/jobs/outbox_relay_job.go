package jobs

import (
	"context"
	"log/slog"
	"time"

	"marketplace/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const outboxRelayJobName = "outbox_relay"

type outboxRelayer interface {
	Handle(ctx context.Context, cmd commands.RelayOutboxCommand) (int, error)
}

// OutboxRelayJob publishes committed lifecycle events every second.
// A run that is still publishing when the next tick fires causes that tick to be skipped.
type OutboxRelayJob struct {
	handler     outboxRelayer
	batchSize   int
	maxAttempts int
	timeout     time.Duration
	cron        *cron.Cron
	metrics     *jobMetrics
	logger      *slog.Logger
}

func newOutboxRelayJob(handler outboxRelayer, cfg Config, metrics *jobMetrics, logger *slog.Logger) *OutboxRelayJob {
	logger = logger.With("component", "outbox_relay_job")
	return &OutboxRelayJob{
		handler:     handler,
		batchSize:   cfg.RelayBatchSize,
		maxAttempts: cfg.RelayMaxAttempts,
		timeout:     cfg.RunTimeout,
		cron:        newCron(logger),
		metrics:     metrics,
		logger:      logger,
	}
}

// RunOnce relays one batch. It is what every tick executes.
func (j *OutboxRelayJob) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cmd, err := commands.NewRelayOutboxCommand(j.batchSize, j.maxAttempts)
	if err != nil {
		return 0, err
	}

	published, err := j.handler.Handle(ctx, cmd)
	j.metrics.record(ctx, outboxRelayJobName, published, err)
	if err != nil {
		j.logger.ErrorContext(ctx, "Outbox relay job failed", "error", err)
		return published, err
	}
	if published > 0 {
		j.logger.DebugContext(ctx, "Outbox messages published", "count", published)
	}
	return published, nil
}

// Start begins relaying on the every-second schedule.
func (j *OutboxRelayJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		_, _ = j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Outbox relay job started (running every second)")
	return nil
}

// Stop waits for a running relay to finish.
func (j *OutboxRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Outbox relay job stopped")
}
