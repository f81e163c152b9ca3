package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document number prefixes.
const (
	PrefixBatch   = "BATCH"
	PrefixInvoice = "INV"
	PrefixPayment = "PAY"
)

// DocumentService issues gapless, per-year document numbers such as INV-2026-00042.
type DocumentService interface {
	// NextNumber issues a number in its own transaction.
	NextNumber(ctx context.Context, prefix string, date time.Time) (string, error)
	// NextNumberTx issues a number inside the caller's transaction. If the caller
	// rolls back, the number is released with it, so sequences stay gapless.
	NextNumberTx(ctx context.Context, tx pgx.Tx, prefix string, date time.Time) (string, error)
}

type documentService struct {
	pool *pgxpool.Pool
}

func NewDocumentService(pool *pgxpool.Pool) DocumentService {
	return &documentService{pool: pool}
}

func (s *documentService) NextNumber(ctx context.Context, prefix string, date time.Time) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	num, err := s.NextNumberTx(ctx, tx, prefix, date)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return num, nil
}

func (s *documentService) NextNumberTx(ctx context.Context, tx pgx.Tx, prefix string, date time.Time) (string, error) {
	return nextNumberWithTx(ctx, tx, prefix, dateOrToday(date).Year())
}

// nextNumberWithTx increments the (prefix, year) counter under the row lock taken by the upsert.
func nextNumberWithTx(ctx context.Context, q pgxQuerier, prefix string, year int) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("document prefix is required")
	}

	var lastNumber int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (prefix, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, prefix, year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}
	return FormatDocumentNumber(prefix, year, lastNumber), nil
}

// FormatDocumentNumber renders PREFIX-YYYY-NNNNN.
func FormatDocumentNumber(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, n)
}
