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

// PaymentService is the payment reconciler: it appends payments and keeps each
// document's paid_amount equal to the sum of its payments.
type PaymentService interface {
	// RecordPayment applies a payment in its own transaction.
	RecordPayment(ctx context.Context, in PaymentInput) (*Settlement, error)
	// ApplyTx locks the referenced document, inserts the payment and updates the
	// document's paid amount and status, all inside the caller's transaction.
	ApplyTx(ctx context.Context, tx pgx.Tx, in PaymentInput) (*Settlement, error)

	// ListPayments returns payments, newest first; ref narrows to a single document.
	ListPayments(ctx context.Context, ref *PaymentRef) ([]PaymentRecord, error)
	Receivables(ctx context.Context) ([]OutstandingDocument, error)
	Payables(ctx context.Context) ([]OutstandingDocument, error)
}

type paymentService struct {
	pool    *pgxpool.Pool
	docs    DocumentService
	targets map[RefType]settlementTarget
}

func NewPaymentService(pool *pgxpool.Pool, docs DocumentService) PaymentService {
	return &paymentService{pool: pool, docs: docs, targets: settlementTargets}
}

// ── Settlement targets ────────────────────────────────────────────────────────

// settleable is the locked state of a document about to receive a payment.
type settleable struct {
	Total decimal.Decimal
	Paid  decimal.Decimal
}

// settlementTarget resolves one RefType to the table that carries its balance.
type settlementTarget interface {
	lockTx(ctx context.Context, tx pgx.Tx, id int64) (*settleable, error)
	applyTx(ctx context.Context, tx pgx.Tx, id int64, paid decimal.Decimal, status PaymentStatus) error
}

var settlementTargets = map[RefType]settlementTarget{
	RefSales:       balanceTable{table: "sales", label: "sale"},
	RefProcurement: balanceTable{table: "procurements", label: "procurement"},
	RefExpense:     settledOnCreate{table: "expenses", label: "expense"},
}

// balanceTable is a document table with total_amount, paid_amount and payment_status.
// table is a constant from settlementTargets, never caller input.
type balanceTable struct {
	table string
	label string
}

func (b balanceTable) lockTx(ctx context.Context, tx pgx.Tx, id int64) (*settleable, error) {
	var st settleable
	err := tx.QueryRow(ctx,
		"SELECT total_amount, paid_amount FROM "+b.table+" WHERE id = $1 FOR UPDATE", id,
	).Scan(&st.Total, &st.Paid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("%s %d not found", b.label, id)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", b.label, err)
	}
	return &st, nil
}

func (b balanceTable) applyTx(ctx context.Context, tx pgx.Tx, id int64, paid decimal.Decimal, status PaymentStatus) error {
	tag, err := tx.Exec(ctx,
		"UPDATE "+b.table+" SET paid_amount = $2, payment_status = $3 WHERE id = $1",
		id, paid, string(status))
	if err != nil {
		return fmt.Errorf("failed to update %s settlement: %w", b.label, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("%s %d not found", b.label, id)
	}
	return nil
}

// settledOnCreate is a document type that is paid in full when recorded.
type settledOnCreate struct {
	table string
	label string
}

func (s settledOnCreate) lockTx(ctx context.Context, tx pgx.Tx, id int64) (*settleable, error) {
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+s.table+" WHERE id = $1)", id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", s.label, err)
	}
	if !exists {
		return nil, notFoundf("%s %d not found", s.label, id)
	}
	return nil, NewValidationError("ref_type", fmt.Sprintf("%s %d is settled when recorded and takes no payments", s.label, id))
}

func (s settledOnCreate) applyTx(context.Context, pgx.Tx, int64, decimal.Decimal, PaymentStatus) error {
	return NewValidationError("ref_type", s.label+" takes no payments")
}

// ── Operations ────────────────────────────────────────────────────────────────

func (s *paymentService) RecordPayment(ctx context.Context, in PaymentInput) (*Settlement, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	settlement, err := s.ApplyTx(ctx, tx, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return settlement, nil
}

func (s *paymentService) ApplyTx(ctx context.Context, tx pgx.Tx, in PaymentInput) (out *Settlement, err error) {
	ctx, span := startSpan(ctx, "PaymentService.ApplyTx",
		attribute.String("payment.ref_type", string(in.Ref.Type)), attribute.Int64("payment.ref_id", in.Ref.ID))
	defer func() { endSpan(span, err) }()

	if in.PaymentMode == "" {
		in.PaymentMode = PaymentModeCash
	}
	in.Amount = money(in.Amount)
	fe := fieldErrors{}
	target, ok := s.targets[in.Ref.Type]
	if !ok {
		fe.add("ref_type", fmt.Sprintf("unknown reference type %q", in.Ref.Type))
	}
	if in.Ref.ID <= 0 {
		fe.add("ref_id", "must be positive")
	}
	if !in.Amount.IsPositive() {
		fe.add("amount", "must be greater than zero")
	}
	if !in.PaymentMode.Valid() {
		fe.add("payment_mode", "must be Cash or Bank")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	doc, err := target.lockTx(ctx, tx, in.Ref.ID)
	if err != nil {
		return nil, err
	}

	balance := doc.Total.Sub(doc.Paid)
	if in.Amount.GreaterThan(balance) {
		return nil, NewValidationError("amount", fmt.Sprintf(
			"%s exceeds the outstanding balance of %s on %s", in.Amount.StringFixed(2), balance.StringFixed(2), in.Ref))
	}

	paymentDate := dateOrToday(in.PaymentDate)
	number, err := s.docs.NextNumberTx(ctx, tx, PrefixPayment, paymentDate)
	if err != nil {
		return nil, err
	}

	p := PaymentRecord{
		PaymentNumber: number,
		RefType:       in.Ref.Type,
		RefID:         in.Ref.ID,
		Amount:        in.Amount,
		PaymentMode:   in.PaymentMode,
		Notes:         normalizeName(in.Notes),
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (payment_number, ref_type, ref_id, amount, payment_mode, payment_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, payment_date, created_at
	`, p.PaymentNumber, string(p.RefType), p.RefID, p.Amount, string(p.PaymentMode), paymentDate, p.Notes,
	).Scan(&p.ID, &p.PaymentDate, &p.CreatedAt)
	if err != nil {
		return nil, insertError("payment", err)
	}

	newPaid := doc.Paid.Add(in.Amount)
	status := StatusFor(newPaid, doc.Total)
	if err := target.applyTx(ctx, tx, in.Ref.ID, newPaid, status); err != nil {
		return nil, err
	}

	out = &Settlement{
		Payment:       p,
		TotalAmount:   doc.Total,
		PaidAmount:    newPaid,
		Balance:       doc.Total.Sub(newPaid),
		PaymentStatus: status,
	}
	if err := enqueueEventTx(ctx, tx, EventPaymentRecorded, "payment", p.PaymentNumber, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *paymentService) ListPayments(ctx context.Context, ref *PaymentRef) ([]PaymentRecord, error) {
	query := `
		SELECT id, payment_number, ref_type, ref_id, amount, payment_mode, payment_date, notes, created_at
		FROM payments`
	var args []any
	if ref != nil {
		query += " WHERE ref_type = $1 AND ref_id = $2"
		args = append(args, string(ref.Type), ref.ID)
	}
	query += " ORDER BY payment_date DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []PaymentRecord{}
	for rows.Next() {
		var p PaymentRecord
		if err := rows.Scan(&p.ID, &p.PaymentNumber, &p.RefType, &p.RefID, &p.Amount,
			&p.PaymentMode, &p.PaymentDate, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *paymentService) Receivables(ctx context.Context) ([]OutstandingDocument, error) {
	return s.outstanding(ctx, RefSales, `
		SELECT id, invoice_number, customer_name, sale_date, total_amount, paid_amount, payment_status
		FROM sales
		WHERE paid_amount < total_amount
		ORDER BY sale_date, id`)
}

func (s *paymentService) Payables(ctx context.Context) ([]OutstandingDocument, error) {
	return s.outstanding(ctx, RefProcurement, `
		SELECT id, '', supplier_name, purchase_date, total_amount, paid_amount, payment_status
		FROM procurements
		WHERE paid_amount < total_amount
		ORDER BY purchase_date, id`)
}

func (s *paymentService) outstanding(ctx context.Context, refType RefType, query string) ([]OutstandingDocument, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query outstanding %s documents: %w", refType, err)
	}
	defer rows.Close()

	docs := []OutstandingDocument{}
	for rows.Next() {
		d := OutstandingDocument{RefType: refType}
		if err := rows.Scan(&d.RefID, &d.Number, &d.Party, &d.Date, &d.TotalAmount, &d.PaidAmount, &d.PaymentStatus); err != nil {
			return nil, fmt.Errorf("failed to scan outstanding document: %w", err)
		}
		d.Balance = d.TotalAmount.Sub(d.PaidAmount)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
