package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// DashboardMetrics is the headline view of stock and money. Tonnage is in tons.
type DashboardMetrics struct {
	TotalProcuredQty       decimal.Decimal `json:"total_procured_qty"`
	TotalMilledInput       decimal.Decimal `json:"total_milled_input"`
	PaddyStock             decimal.Decimal `json:"paddy_stock"`
	TotalMilledOutput      decimal.Decimal `json:"total_milled_output"`
	BagsSold               int64           `json:"bags_sold"`
	FinishedStockTons      decimal.Decimal `json:"finished_stock_tons"`
	FinishedStockBags      int64           `json:"finished_stock_bags"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	TotalExpenses          decimal.Decimal `json:"total_expenses"`
	ReceivablesOutstanding decimal.Decimal `json:"receivables_outstanding"`
	PayablesOutstanding    decimal.Decimal `json:"payables_outstanding"`
	LowStockItems          int64           `json:"low_stock_items"`
	BatchCount             int64           `json:"batch_count"`
	AverageEfficiency      decimal.Decimal `json:"average_efficiency"`
}

// DateRange bounds a report by calendar date, inclusive. Nil means unbounded.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

type CategoryTotal struct {
	Category ExpenseCategory `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type ProfitLossSummary struct {
	Period             DateRange       `json:"period"`
	Revenue            decimal.Decimal `json:"revenue"`
	ProcurementCost    decimal.Decimal `json:"procurement_cost"`
	Expenses           decimal.Decimal `json:"expenses"`
	ExpensesByCategory []CategoryTotal `json:"expenses_by_category"`
	NetProfit          decimal.Decimal `json:"net_profit"`
	ProfitMargin       decimal.Decimal `json:"profit_margin"`
}

// TrendPoint is one year-month bucket.
type TrendPoint struct {
	Month           string          `json:"month"` // YYYY-MM
	Revenue         decimal.Decimal `json:"revenue"`
	ProcurementCost decimal.Decimal `json:"procurement_cost"`
	Expenses        decimal.Decimal `json:"expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
}

type ModeTotal struct {
	PaymentMode PaymentMode     `json:"payment_mode"`
	Received    decimal.Decimal `json:"received"`
	PaidOut     decimal.Decimal `json:"paid_out"`
	Count       int64           `json:"count"`
}

type PaymentSummary struct {
	TotalReceived          decimal.Decimal `json:"total_received"`
	TotalPaidOut           decimal.Decimal `json:"total_paid_out"`
	ByMode                 []ModeTotal     `json:"by_mode"`
	ReceivablesOutstanding decimal.Decimal `json:"receivables_outstanding"`
	PayablesOutstanding    decimal.Decimal `json:"payables_outstanding"`
	OpenReceivables        int64           `json:"open_receivables"`
	OpenPayables           int64           `json:"open_payables"`
	PaymentCount           int64           `json:"payment_count"`
}

// NetProfit is revenue less procurement cost and expenses.
func NetProfit(revenue, procurement, expenses decimal.Decimal) decimal.Decimal {
	return revenue.Sub(procurement).Sub(expenses)
}

// ProfitMargin is net/revenue×100 rounded to two places, or zero without revenue.
func ProfitMargin(net, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return net.Mul(hundred).Div(revenue).Round(2)
}

// FinishedStockTons is milled output less bags sold converted to tons.
func FinishedStockTons(milledOutput decimal.Decimal, bagsSold int64, units Units) decimal.Decimal {
	return milledOutput.Sub(decimal.NewFromInt(bagsSold).Mul(units.TonsPerBag))
}
