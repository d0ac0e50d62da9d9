package jobs

import (
	"context"
	"log/slog"
	"time"

	"marketplace/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const settlementJobName = "settlement"

type deliveredSettler interface {
	Handle(ctx context.Context, cmd commands.SettleDeliveredCommand) (int, error)
}

// SettlementJob completes delivered orders whose settlement window elapsed.
// It runs at the start of every minute; with a zero window it is a no-op.
type SettlementJob struct {
	handler   deliveredSettler
	batchSize int
	timeout   time.Duration
	cron      *cron.Cron
	metrics   *jobMetrics
	logger    *slog.Logger
}

func newSettlementJob(handler deliveredSettler, cfg Config, metrics *jobMetrics, logger *slog.Logger) *SettlementJob {
	logger = logger.With("component", "settlement_job")
	return &SettlementJob{
		handler:   handler,
		batchSize: cfg.SettlementBatchSize,
		timeout:   cfg.RunTimeout,
		cron:      newCron(logger),
		metrics:   metrics,
		logger:    logger,
	}
}

// RunOnce settles one batch. Per-order failures are logged by the handler
// and reported here as a failed run; the settled orders stay settled.
func (j *SettlementJob) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cmd, err := commands.NewSettleDeliveredCommand(j.batchSize)
	if err != nil {
		return 0, err
	}

	settled, err := j.handler.Handle(ctx, cmd)
	j.metrics.record(ctx, settlementJobName, settled, err)
	if err != nil {
		j.logger.ErrorContext(ctx, "Settlement job failed", "error", err, "settled", settled)
		return settled, err
	}
	if settled > 0 {
		j.logger.InfoContext(ctx, "Delivered orders settled", "count", settled)
	}
	return settled, nil
}

// Start begins sweeping at the start of every minute.
func (j *SettlementJob) Start() error {
	_, err := j.cron.AddFunc("0 * * * * *", func() {
		_, _ = j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Settlement job started (running every minute)")
	return nil
}

func (j *SettlementJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Settlement job stopped")
}
