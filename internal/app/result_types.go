package app

import (
	"github.com/shopspring/decimal"

	"rice-mill/internal/core"
)

// InventoryListResult is returned by ListInventory and LowStock.
type InventoryListResult struct {
	Items     []core.InventoryItem
	TotalBags int64
}

// MovementListResult is returned by InventoryMovements.
type MovementListResult struct {
	ItemID    int64
	Movements []core.InventoryMovement
}

// BatchListResult is returned by ListMilling.
type BatchListResult struct {
	Batches []core.MillingBatch
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []core.SaleInvoice
}

// ProcurementListResult is returned by ListProcurements.
type ProcurementListResult struct {
	Procurements []core.ProcurementRecord
}

// ExpenseListResult is returned by ListExpenses.
type ExpenseListResult struct {
	Expenses []core.Expense
	Total    decimal.Decimal
}

// PaymentListResult is returned by ListPayments.
type PaymentListResult struct {
	Payments []core.PaymentRecord
}

// OutstandingResult is returned by Receivables and Payables.
type OutstandingResult struct {
	Documents []core.OutstandingDocument
	Total     decimal.Decimal
}

// TrendResult is returned by ProfitLossTrend.
type TrendResult struct {
	Months int
	Points []core.TrendPoint
}
