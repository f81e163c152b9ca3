package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// ProcurementService records paddy purchases. Procurement creates a payable;
// it does not touch the finished-goods stock ledger.
type ProcurementService interface {
	CreateProcurement(ctx context.Context, in ProcurementInput) (*ProcurementRecord, error)
	ListProcurements(ctx context.Context) ([]ProcurementRecord, error)
	GetProcurement(ctx context.Context, id int64) (*ProcurementRecord, error)
}

type procurementService struct {
	pool *pgxpool.Pool
}

func NewProcurementService(pool *pgxpool.Pool) ProcurementService {
	return &procurementService{pool: pool}
}

const procurementColumns = `
	id, supplier_name, paddy_type, moisture_percentage, quantity, rate_per_quintal,
	total_amount, paid_amount, payment_status, purchase_date, created_at`

func scanProcurement(row pgx.Row) (*ProcurementRecord, error) {
	var p ProcurementRecord
	if err := row.Scan(&p.ID, &p.SupplierName, &p.PaddyType, &p.MoisturePercentage, &p.Quantity,
		&p.RatePerQuintal, &p.TotalAmount, &p.PaidAmount, &p.PaymentStatus, &p.PurchaseDate, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *procurementService) CreateProcurement(ctx context.Context, in ProcurementInput) (rec *ProcurementRecord, err error) {
	ctx, span := startSpan(ctx, "ProcurementService.CreateProcurement", attribute.String("procurement.supplier", in.SupplierName))
	defer func() { endSpan(span, err) }()

	in.SupplierName = normalizeName(in.SupplierName)
	in.PaddyType = normalizeName(in.PaddyType)
	in.Quantity = tons(in.Quantity)
	in.RatePerQuintal = money(in.RatePerQuintal)
	in.MoisturePercentage = in.MoisturePercentage.Round(2)

	fe := fieldErrors{}
	if in.SupplierName == "" {
		fe.add("supplier_name", "is required")
	}
	if in.PaddyType == "" {
		fe.add("paddy_type", "is required")
	}
	if !in.Quantity.IsPositive() {
		fe.add("quantity", "must be greater than zero")
	}
	if in.RatePerQuintal.IsNegative() {
		fe.add("rate_per_quintal", "cannot be negative")
	}
	if in.MoisturePercentage.IsNegative() || in.MoisturePercentage.GreaterThan(hundred) {
		fe.add("moisture_percentage", "must be between 0 and 100")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	total := ProcurementTotal(in.Quantity, in.RatePerQuintal)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err = scanProcurement(tx.QueryRow(ctx, `
		INSERT INTO procurements (
			supplier_name, paddy_type, moisture_percentage, quantity, rate_per_quintal,
			total_amount, paid_amount, payment_status, purchase_date
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
		RETURNING `+procurementColumns,
		in.SupplierName, in.PaddyType, in.MoisturePercentage, in.Quantity, in.RatePerQuintal,
		total, string(StatusFor(decimal.Zero, total)), dateOrToday(in.PurchaseDate)))
	if err != nil {
		return nil, insertError("procurement", err)
	}

	if err := enqueueEventTx(ctx, tx, EventProcurementRecorded, "procurement", fmt.Sprint(rec.ID), rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rec, nil
}

func (s *procurementService) ListProcurements(ctx context.Context) ([]ProcurementRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+procurementColumns+` FROM procurements ORDER BY purchase_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query procurements: %w", err)
	}
	defer rows.Close()

	records := []ProcurementRecord{}
	for rows.Next() {
		p, err := scanProcurement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan procurement: %w", err)
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

func (s *procurementService) GetProcurement(ctx context.Context, id int64) (*ProcurementRecord, error) {
	p, err := scanProcurement(s.pool.QueryRow(ctx, `SELECT `+procurementColumns+` FROM procurements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("procurement %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch procurement: %w", err)
	}
	return p, nil
}
