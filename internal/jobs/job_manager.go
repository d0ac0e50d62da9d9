package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Config sizes the job batches.
type Config struct {
	RelayBatchSize      int
	RelayMaxAttempts    int
	SettlementBatchSize int
	RunTimeout          time.Duration
}

// DefaultConfig relays 100 messages with 10 attempts each and settles 50 orders per run.
func DefaultConfig() Config {
	return Config{RelayBatchSize: 100, RelayMaxAttempts: 10, SettlementBatchSize: 50, RunTimeout: 30 * time.Second}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RelayBatchSize <= 0 {
		c.RelayBatchSize = d.RelayBatchSize
	}
	if c.RelayMaxAttempts <= 0 {
		c.RelayMaxAttempts = d.RelayMaxAttempts
	}
	if c.SettlementBatchSize <= 0 {
		c.SettlementBatchSize = d.SettlementBatchSize
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = d.RunTimeout
	}
	return c
}

// newCron builds a seconds-resolution scheduler that skips a tick while the
// previous run of the same job is still going.
func newCron(logger *slog.Logger) *cron.Cron {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	outboxRelayJob *OutboxRelayJob
	settlementJob  *SettlementJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	relayHandler outboxRelayer,
	settleHandler deliveredSettler,
	cfg Config,
	logger *slog.Logger,
) (*JobManager, error) {
	cfg = cfg.withDefaults()
	metrics, err := newJobMetrics()
	if err != nil {
		return nil, err
	}

	return &JobManager{
		outboxRelayJob: newOutboxRelayJob(relayHandler, cfg, metrics, logger),
		settlementJob:  newSettlementJob(settleHandler, cfg, metrics, logger),
	}, nil
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.outboxRelayJob.Start(); err != nil {
		return fmt.Errorf("failed to start outbox relay job: %w", err)
	}

	if err := jm.settlementJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.outboxRelayJob.Stop()
		return fmt.Errorf("failed to start settlement job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs and waits for running ones to return.
func (jm *JobManager) StopAll() {
	jm.settlementJob.Stop()
	jm.outboxRelayJob.Stop()
}
