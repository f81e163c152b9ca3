package app

import (
	"context"

	"rice-mill/internal/core"
)

// ApplicationService is the single interface the Web and CLI adapters call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ListInventory returns every stock item with its low-stock flag.
	ListInventory(ctx context.Context) (*InventoryListResult, error)

	// LowStock returns items whose quantity is below their minimum threshold.
	LowStock(ctx context.Context) (*InventoryListResult, error)

	// InventoryMovements returns the newest movements of one item. limit <= 0 uses the default.
	InventoryMovements(ctx context.Context, itemID int64, limit int) (*MovementListResult, error)

	// AdjustInventory applies a manual signed correction and records the reason.
	AdjustInventory(ctx context.Context, req AdjustInventoryRequest) (*core.InventoryItem, error)

	// SetThreshold updates an item's minimum threshold.
	SetThreshold(ctx context.Context, req SetThresholdRequest) (*core.InventoryItem, error)

	// RecordMilling records a milling batch and credits finished stock.
	RecordMilling(ctx context.Context, req MillingRequest) (*core.MillingBatch, error)

	// ListMilling returns milling batches, newest first.
	ListMilling(ctx context.Context) (*BatchListResult, error)

	// CreateSale debits stock and raises an invoice, settling it when requested.
	CreateSale(ctx context.Context, req SaleRequest) (*core.SaleInvoice, error)

	// ListSales returns invoices, newest first.
	ListSales(ctx context.Context) (*SaleListResult, error)

	// GetSale returns one invoice.
	GetSale(ctx context.Context, id int64) (*core.SaleInvoice, error)

	// CreateProcurement records a paddy purchase as a payable.
	CreateProcurement(ctx context.Context, req ProcurementRequest) (*core.ProcurementRecord, error)

	// ListProcurements returns purchases, newest first.
	ListProcurements(ctx context.Context) (*ProcurementListResult, error)

	// CreateExpense records a settled operating cost.
	CreateExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error)

	// ListExpenses returns expenses, newest first.
	ListExpenses(ctx context.Context) (*ExpenseListResult, error)

	// RecordPayment applies a payment to a sale or procurement and recomputes its status.
	RecordPayment(ctx context.Context, req PaymentRequest) (*core.Settlement, error)

	// ListPayments returns payments, optionally restricted to one document.
	ListPayments(ctx context.Context, req PaymentFilter) (*PaymentListResult, error)

	// Receivables returns sales with an outstanding balance.
	Receivables(ctx context.Context) (*OutstandingResult, error)

	// Payables returns procurements with an outstanding balance.
	Payables(ctx context.Context) (*OutstandingResult, error)

	// PaymentSummary returns money received and paid out.
	PaymentSummary(ctx context.Context) (*core.PaymentSummary, error)

	// DashboardMetrics returns the headline stock and money figures.
	DashboardMetrics(ctx context.Context) (*core.DashboardMetrics, error)

	// ProfitLossSummary returns P&L for an optional YYYY-MM-DD date range (empty = unbounded).
	ProfitLossSummary(ctx context.Context, from, to string) (*core.ProfitLossSummary, error)

	// ProfitLossTrend returns monthly P&L buckets for the last months months.
	ProfitLossTrend(ctx context.Context, months int) (*TrendResult, error)

	// CheckIntegrity audits stored balances and stock against their invariants.
	CheckIntegrity(ctx context.Context) (*core.IntegrityReport, error)
}
