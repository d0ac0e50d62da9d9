package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

var ErrRelayOutboxCommandIsNotConstructed = errors.New(
	"RelayOutboxCommand must be created via NewRelayOutboxCommand constructor",
)

// RetrySchedule computes when a failed publish is tried again.
// The n-th retry waits Initial * 2^(n-1), capped at Max, without jitter.
type RetrySchedule struct {
	Initial time.Duration
	Max     time.Duration
}

// DefaultRetrySchedule starts at one second and caps at five minutes.
func DefaultRetrySchedule() RetrySchedule {
	return RetrySchedule{Initial: time.Second, Max: 5 * time.Minute}
}

// Delay returns the wait before the given attempt, counting from 1.
func (s RetrySchedule) Delay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.Initial
	b.MaxInterval = s.Max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

// RelayOutboxCommand publishes one batch of pending outbox messages.
type RelayOutboxCommand struct {
	batchSize   int
	maxAttempts int

	guard guard.ConstructorGuard
}

func NewRelayOutboxCommand(batchSize, maxAttempts int) (RelayOutboxCommand, error) {
	var errList []error
	if batchSize <= 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "unbounded"))
	}
	if maxAttempts <= 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("maxAttempts", maxAttempts, 1, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return RelayOutboxCommand{}, err
	}
	return RelayOutboxCommand{batchSize: batchSize, maxAttempts: maxAttempts, guard: guard.NewConstructorGuard()}, nil
}

func (c RelayOutboxCommand) Validate() error {
	return c.guard.Validate(ErrRelayOutboxCommandIsNotConstructed)
}

// RelayOutboxCommandHandler moves committed lifecycle events to the notification
// collaborator. Delivery is at least once: a message published right before a
// failed commit is published again by the next run.
//
// Example:
//
//	handler := NewRelayOutboxCommandHandler(outboxUoWFactory, publisher, DefaultRetrySchedule(), time.Now, logger)
//	published, err := handler.Handle(ctx, cmd)
type RelayOutboxCommandHandler struct {
	uowFactory OutboxUoWFactory
	publisher  ports.EventPublisher
	schedule   RetrySchedule
	clock      func() time.Time
	logger     *slog.Logger
}

func NewRelayOutboxCommandHandler(
	uowFactory OutboxUoWFactory,
	publisher ports.EventPublisher,
	schedule RetrySchedule,
	clock func() time.Time,
	logger *slog.Logger,
) RelayOutboxCommandHandler {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return RelayOutboxCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		schedule:   schedule,
		clock:      clock,
		logger:     logger,
	}
}

// Handle returns the number of messages published in this run.
// A failed publish is recorded on the message and does not fail the batch.
func (h RelayOutboxCommandHandler) Handle(ctx context.Context, cmd RelayOutboxCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OutboxRepository()
	messages, err := repo.GetPending(ctx, h.clock(), cmd.batchSize, cmd.maxAttempts)
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}

	published := 0
	for _, m := range messages {
		now := h.clock()
		if pubErr := h.publisher.Publish(ctx, m); pubErr != nil {
			m.MarkFailed(pubErr, now.Add(h.schedule.Delay(m.Attempts()+1)))
			h.logger.WarnContext(ctx, "outbox publish failed",
				slog.String("message_id", m.ID().String()),
				slog.String("event_type", m.EventType()),
				slog.Int("attempts", m.Attempts()),
				slog.String("error", pubErr.Error()),
			)
		} else {
			m.MarkPublished(now)
			published++
		}

		if err = repo.Update(ctx, m); err != nil {
			return 0, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}
	return published, nil
}
