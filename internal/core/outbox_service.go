package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Domain event types written to the outbox.
const (
	EventMillingBatchRecorded = "milling.batch_recorded"
	EventSaleCreated          = "sales.invoice_created"
	EventProcurementRecorded  = "procurement.recorded"
	EventPaymentRecorded      = "payments.payment_recorded"
	EventExpenseRecorded      = "expenses.recorded"
	EventInventoryAdjusted    = "inventory.adjusted"
)

// OutboxEvent is a committed domain event awaiting publication.
type OutboxEvent struct {
	ID            int64           `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
}

// enqueueEventTx writes an event in the caller's transaction so it commits or
// rolls back together with the change it describes.
func enqueueEventTx(ctx context.Context, q pgxExecer, eventType, aggregateType, aggregateID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO outbox_events (event_type, aggregate_type, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
	`, eventType, aggregateType, aggregateID, body)
	if err != nil {
		return fmt.Errorf("failed to write %s event: %w", eventType, err)
	}
	return nil
}

// OutboxService is the relay's view of the outbox table.
type OutboxService interface {
	// Pending returns up to limit unpublished, live events that are due, oldest first.
	Pending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
	// MarkFailed records a failed attempt. dead stops further retries.
	MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, dead bool, lastErr string) error
}

type outboxService struct {
	pool *pgxpool.Pool
}

func NewOutboxService(pool *pgxpool.Pool) OutboxService {
	return &outboxService{pool: pool}
}

func (s *outboxService) Pending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, aggregate_type, aggregate_id, payload, attempts, created_at
		FROM outbox_events
		WHERE published_at IS NULL AND dead = false AND next_attempt_at <= NOW()
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateType, &e.AggregateID, &e.Payload, &e.Attempts, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *outboxService) MarkPublished(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox_events
		SET published_at = NOW(), attempts = attempts + 1, last_error = NULL
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %d published: %w", id, err)
	}
	return nil
}

func (s *outboxService) MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, dead bool, lastErr string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox_events
		SET attempts = $2, next_attempt_at = $3, dead = $4, last_error = $5
		WHERE id = $1
	`, id, attempts, nextAttemptAt, dead, lastErr)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure for %d: %w", id, err)
	}
	return nil
}
