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

// SalesService invoices finished rice against stock.
type SalesService interface {
	// CreateSale debits stock, writes the invoice and, for Paid or Partial sales,
	// records the payment through the PaymentService in the same transaction.
	CreateSale(ctx context.Context, in SaleInput) (*SaleInvoice, error)
	ListSales(ctx context.Context) ([]SaleInvoice, error)
	GetSale(ctx context.Context, id int64) (*SaleInvoice, error)
}

type salesService struct {
	pool      *pgxpool.Pool
	inventory InventoryService
	payments  PaymentService
	docs      DocumentService
}

func NewSalesService(pool *pgxpool.Pool, inventory InventoryService, payments PaymentService, docs DocumentService) SalesService {
	return &salesService{pool: pool, inventory: inventory, payments: payments, docs: docs}
}

const saleColumns = `
	id, invoice_number, customer_name, rice_variety, grade, bag_size_kg, godown_location,
	quantity_bags, rate_per_bag, transport_charge, gst_amount, total_amount, paid_amount,
	payment_status, sale_date, created_at`

func scanSale(row pgx.Row) (*SaleInvoice, error) {
	var s SaleInvoice
	if err := row.Scan(&s.ID, &s.InvoiceNumber, &s.CustomerName, &s.RiceVariety, &s.Grade, &s.BagSizeKg,
		&s.GodownLocation, &s.QuantityBags, &s.RatePerBag, &s.TransportCharge, &s.GSTAmount,
		&s.TotalAmount, &s.PaidAmount, &s.PaymentStatus, &s.SaleDate, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func validateSale(in *SaleInput) error {
	in.CustomerName = normalizeName(in.CustomerName)
	in.RatePerBag = money(in.RatePerBag)
	in.TransportCharge = money(in.TransportCharge)
	in.GSTAmount = money(in.GSTAmount)
	in.PaidAmount = money(in.PaidAmount)
	if in.PaymentStatus == "" {
		in.PaymentStatus = PaymentPending
	}
	if in.PaymentMode == "" {
		in.PaymentMode = PaymentModeCash
	}

	fe := fieldErrors{}
	if in.CustomerName == "" {
		fe.add("customer_name", "is required")
	}
	if in.QuantityBags <= 0 {
		fe.add("quantity_bags", "must be greater than zero")
	}
	if in.RatePerBag.IsNegative() {
		fe.add("rate_per_bag", "cannot be negative")
	}
	if in.TransportCharge.IsNegative() {
		fe.add("transport_charge", "cannot be negative")
	}
	if in.GSTAmount.IsNegative() {
		fe.add("gst_amount", "cannot be negative")
	}
	if !in.PaymentStatus.Valid() {
		fe.add("payment_status", "must be Pending, Partial or Paid")
	}
	if !in.PaymentMode.Valid() {
		fe.add("payment_mode", "must be Cash or Bank")
	}
	if in.PaymentStatus == PaymentPartial {
		total := SaleTotal(in.QuantityBags, in.RatePerBag, in.TransportCharge, in.GSTAmount)
		if !in.PaidAmount.IsPositive() || !in.PaidAmount.LessThan(total) {
			fe.add("paid_amount", "must be greater than zero and less than the invoice total for a Partial sale")
		}
	}
	return fe.err()
}

func (s *salesService) CreateSale(ctx context.Context, in SaleInput) (invoice *SaleInvoice, err error) {
	ctx, span := startSpan(ctx, "SalesService.CreateSale",
		attribute.String("sale.rice_variety", in.RiceVariety), attribute.Int64("sale.quantity_bags", in.QuantityBags))
	defer func() { endSpan(span, err) }()

	if err := validateSale(&in); err != nil {
		return nil, err
	}
	saleDate := dateOrToday(in.SaleDate)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	number, err := s.docs.NextNumberTx(ctx, tx, PrefixInvoice, saleDate)
	if err != nil {
		return nil, err
	}

	item, err := s.inventory.DebitTx(ctx, tx, StockKey{
		RiceVariety:    in.RiceVariety,
		Grade:          in.Grade,
		BagSizeKg:      in.BagSizeKg,
		GodownLocation: in.GodownLocation,
	}, in.QuantityBags, number)
	if err != nil {
		return nil, err
	}

	total := SaleTotal(in.QuantityBags, in.RatePerBag, in.TransportCharge, in.GSTAmount)
	invoice, err = scanSale(tx.QueryRow(ctx, `
		INSERT INTO sales (
			invoice_number, customer_name, rice_variety, grade, bag_size_kg, godown_location,
			quantity_bags, rate_per_bag, transport_charge, gst_amount, total_amount, paid_amount,
			payment_status, sale_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $13)
		RETURNING `+saleColumns,
		number, in.CustomerName, item.RiceVariety, string(item.Grade), item.BagSizeKg, item.GodownLocation,
		in.QuantityBags, in.RatePerBag, in.TransportCharge, in.GSTAmount, total,
		string(StatusFor(decimal.Zero, total)), saleDate))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: invoice %s already exists", ErrConflict, number)
		}
		return nil, insertError("sale", err)
	}

	var settleAmount decimal.Decimal
	switch in.PaymentStatus {
	case PaymentPaid:
		settleAmount = total
	case PaymentPartial:
		settleAmount = in.PaidAmount
	}
	if settleAmount.IsPositive() {
		settlement, err := s.payments.ApplyTx(ctx, tx, PaymentInput{
			Ref:         PaymentRef{Type: RefSales, ID: invoice.ID},
			Amount:      settleAmount,
			PaymentMode: in.PaymentMode,
			PaymentDate: saleDate,
			Notes:       "received at sale " + number,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record payment for %s: %w", number, err)
		}
		invoice.PaidAmount = settlement.PaidAmount
		invoice.PaymentStatus = settlement.PaymentStatus
	}

	if err := enqueueEventTx(ctx, tx, EventSaleCreated, "sale", invoice.InvoiceNumber, invoice); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return invoice, nil
}

func (s *salesService) ListSales(ctx context.Context) ([]SaleInvoice, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY sale_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := []SaleInvoice{}
	for rows.Next() {
		inv, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *inv)
	}
	return sales, rows.Err()
}

func (s *salesService) GetSale(ctx context.Context, id int64) (*SaleInvoice, error) {
	inv, err := scanSale(s.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("sale %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch sale: %w", err)
	}
	return inv, nil
}
