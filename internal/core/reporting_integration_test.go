package core_test

import (
	"testing"
	"time"

	"rice-mill/internal/core"
)

// seedLedger records one procurement, one milling run, one sale and one expense.
func seedLedger(t *testing.T, env *testEnv) {
	t.Helper()
	if _, err := env.procurement.CreateProcurement(env.ctx, core.ProcurementInput{
		SupplierName: "Ramesh Farms", PaddyType: "Sona Masoori", Quantity: d("12"), RatePerQuintal: d("1000"),
	}); err != nil {
		t.Fatalf("CreateProcurement failed: %v", err)
	}
	if _, err := env.milling.CreateBatch(env.ctx, core.MillingInput{
		PaddyType: "Sona Masoori", InputPaddyQty: d("10"), OutputRiceQty: d("6.5"), BrokenRiceQty: d("0.5"), HuskQty: d("2"),
	}); err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	sale := pendingSale("Sona Masoori", 40, "1200")
	sale.TransportCharge = d("500")
	if _, err := env.sales.CreateSale(env.ctx, sale); err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if _, err := env.expenses.CreateExpense(env.ctx, core.ExpenseInput{Category: core.ExpenseLabour, Amount: d("2500")}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
}

func TestReporting_DashboardMetrics(t *testing.T) {
	env := setupEnv(t)
	seedLedger(t, env)

	m, err := env.reporting.DashboardMetrics(env.ctx)
	if err != nil {
		t.Fatalf("DashboardMetrics failed: %v", err)
	}
	if !m.PaddyStock.Equal(d("2")) {
		t.Errorf("Expected paddy stock 12-10=2, got %s", m.PaddyStock)
	}
	if !m.TotalMilledOutput.Equal(d("7")) {
		t.Errorf("Expected milled output 7, got %s", m.TotalMilledOutput)
	}
	if m.BagsSold != 40 {
		t.Errorf("Expected 40 bags sold, got %d", m.BagsSold)
	}
	if !m.FinishedStockTons.Equal(d("5")) {
		t.Errorf("Expected finished stock 7-40*0.05=5, got %s", m.FinishedStockTons)
	}
	if m.FinishedStockBags != 100 {
		t.Errorf("Expected 130+10-40=100 bags on hand, got %d", m.FinishedStockBags)
	}
	if !m.TotalRevenue.Equal(d("48500")) || !m.ReceivablesOutstanding.Equal(d("48500")) {
		t.Errorf("Unexpected revenue/receivables: %s / %s", m.TotalRevenue, m.ReceivablesOutstanding)
	}
	if !m.PayablesOutstanding.Equal(d("12000")) {
		t.Errorf("Expected payables 12000, got %s", m.PayablesOutstanding)
	}
	if m.BatchCount != 1 || !m.AverageEfficiency.Equal(d("70")) {
		t.Errorf("Unexpected batch stats: %d / %s", m.BatchCount, m.AverageEfficiency)
	}
}

func TestReporting_ProfitLossSummary(t *testing.T) {
	env := setupEnv(t)
	seedLedger(t, env)

	r, err := env.reporting.ProfitLossSummary(env.ctx, core.DateRange{})
	if err != nil {
		t.Fatalf("ProfitLossSummary failed: %v", err)
	}
	// 48500 - 12000 - 2500
	if !r.NetProfit.Equal(d("34000")) {
		t.Errorf("Expected net profit 34000, got %s", r.NetProfit)
	}
	if !r.ProfitMargin.Equal(d("70.1")) {
		t.Errorf("Expected margin 70.10, got %s", r.ProfitMargin)
	}
	if len(r.ExpensesByCategory) != 1 || r.ExpensesByCategory[0].Category != core.ExpenseLabour {
		t.Errorf("Unexpected category breakdown: %+v", r.ExpensesByCategory)
	}

	// A window entirely in the past sees nothing.
	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2000, 12, 31, 0, 0, 0, 0, time.UTC)
	empty, err := env.reporting.ProfitLossSummary(env.ctx, core.DateRange{From: &from, To: &to})
	if err != nil {
		t.Fatalf("ProfitLossSummary (range) failed: %v", err)
	}
	if !empty.Revenue.IsZero() || !empty.ProfitMargin.IsZero() {
		t.Errorf("Expected empty period, got %+v", empty)
	}
}

func TestReporting_ProfitLossTrend(t *testing.T) {
	env := setupEnv(t)
	seedLedger(t, env)

	points, err := env.reporting.ProfitLossTrend(env.ctx, 3)
	if err != nil {
		t.Fatalf("ProfitLossTrend failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("Expected 3 months, got %d", len(points))
	}
	current := points[2]
	if current.Month != time.Now().UTC().Format("2006-01") {
		t.Errorf("Expected last bucket to be the current month, got %s", current.Month)
	}
	if !current.NetProfit.Equal(d("34000")) {
		t.Errorf("Expected current month net 34000, got %s", current.NetProfit)
	}
	if !points[0].Revenue.IsZero() {
		t.Errorf("Expected zero-filled earlier month, got %s", points[0].Revenue)
	}
}

func TestReporting_PaymentSummary(t *testing.T) {
	env := setupEnv(t)
	seedLedger(t, env)

	sales, _ := env.sales.ListSales(env.ctx)
	if _, err := env.payments.RecordPayment(env.ctx, core.PaymentInput{
		Ref: core.PaymentRef{Type: core.RefSales, ID: sales[0].ID}, Amount: d("8500"), PaymentMode: core.PaymentModeBank,
	}); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	ps, err := env.reporting.PaymentSummary(env.ctx)
	if err != nil {
		t.Fatalf("PaymentSummary failed: %v", err)
	}
	if !ps.TotalReceived.Equal(d("8500")) || !ps.TotalPaidOut.IsZero() {
		t.Errorf("Unexpected totals: received %s paid out %s", ps.TotalReceived, ps.TotalPaidOut)
	}
	if !ps.ReceivablesOutstanding.Equal(d("40000")) || ps.OpenReceivables != 1 {
		t.Errorf("Unexpected receivables: %s (%d)", ps.ReceivablesOutstanding, ps.OpenReceivables)
	}
	if len(ps.ByMode) != 1 || ps.ByMode[0].PaymentMode != core.PaymentModeBank {
		t.Errorf("Unexpected by-mode totals: %+v", ps.ByMode)
	}
}
