package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/metrics"
)

// maxAttempts is the number of publish failures after which an event is
// parked as failed.
const maxAttempts = 5

type outboxRepo interface {
	ClaimPending(ctx context.Context, tx *sql.Tx, limit int) ([]domain.OutboxEvent, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.OutboxStatus) error
}

type publisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

type Dispatcher struct {
	events    outboxRepo
	publisher publisher
	db        *sql.DB
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewDispatcher(
	events outboxRepo,
	pub publisher,
	db *sql.DB,
	logger *slog.Logger,
	interval time.Duration,
	batchSize int,
) *Dispatcher {
	return &Dispatcher{
		events:    events,
		publisher: pub,
		db:        db,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("outbox dispatcher started", "interval", d.interval, "batch_size", d.batchSize)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(ctx); err != nil {
				d.logger.Error("outbox dispatch failed", "error", err)
			}
		}
	}
}

// DispatchOnce publishes one batch of pending events and returns how many
// were delivered. Claimed rows stay locked until the batch commits.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("DispatchOnce: begin tx: %w", err)
	}
	defer tx.Rollback()

	events, err := d.events.ClaimPending(ctx, tx, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("DispatchOnce: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	delivered := 0
	for _, event := range events {
		status := domain.OutboxStatusDispatched
		if err := d.publisher.Publish(ctx, event); err != nil {
			status = domain.OutboxStatusPending
			if event.Attempts+1 >= maxAttempts {
				status = domain.OutboxStatusFailed
			}
			d.logger.Error("failed to publish outbox event",
				"outbox_event_id", event.ID,
				"event_type", event.EventType,
				"attempt", event.Attempts+1,
				"error", err,
			)
		} else {
			delivered++
		}

		if err := d.events.UpdateStatus(ctx, tx, event.ID, status); err != nil {
			return 0, fmt.Errorf("DispatchOnce: %w", err)
		}
		metrics.RecordOutbox(string(status))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("DispatchOnce: commit: %w", err)
	}
	return delivered, nil
}
