package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rice-mill/internal/app"
	"rice-mill/internal/core"
)

type stubService struct {
	app.ApplicationService
	report   *core.IntegrityReport
	gotFrom  string
	gotTo    string
	gotMonth int
}

func (s *stubService) ListInventory(context.Context) (*app.InventoryListResult, error) {
	return &app.InventoryListResult{
		Items: []core.InventoryItem{
			{ID: 1, StockKey: core.StockKey{RiceVariety: "IR20", Grade: core.GradePremium, BagSizeKg: 50, GodownLocation: "Main Godown"}, Quantity: 70, MinimumThreshold: 100, LowStock: true},
			{ID: 2, StockKey: core.StockKey{RiceVariety: "IR20", Grade: core.GradeBroken, BagSizeKg: 50, GodownLocation: "Main Godown"}, Quantity: 20},
		},
		TotalBags: 90,
	}, nil
}

func (s *stubService) Receivables(context.Context) (*app.OutstandingResult, error) {
	return &app.OutstandingResult{
		Documents: []core.OutstandingDocument{{RefType: core.RefSales, RefID: 3, Number: "INV-2026-00003", Party: "Sri Lakshmi Traders", Date: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), Balance: decimal.RequireFromString("24000")}},
		Total:     decimal.RequireFromString("24000"),
	}, nil
}

func (s *stubService) ProfitLossSummary(_ context.Context, from, to string) (*core.ProfitLossSummary, error) {
	s.gotFrom, s.gotTo = from, to
	return &core.ProfitLossSummary{Revenue: decimal.NewFromInt(1000), NetProfit: decimal.NewFromInt(250), ProfitMargin: decimal.NewFromInt(25)}, nil
}

func (s *stubService) ProfitLossTrend(_ context.Context, months int) (*app.TrendResult, error) {
	s.gotMonth = months
	return &app.TrendResult{Months: 6, Points: []core.TrendPoint{{Month: "2026-03"}}}, nil
}

func (s *stubService) CheckIntegrity(context.Context) (*core.IntegrityReport, error) {
	return s.report, nil
}

func TestRun_Stock(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), &stubService{}, []string{"stock"}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	text := out.String()
	for _, want := range []string{"FINISHED STOCK", "IR20", "Premium", "TOTAL BAGS", "90"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, text)
		}
	}
	if !strings.Contains(text, "100 !") {
		t.Errorf("Expected low-stock marker on the first row:\n%s", text)
	}
}

func TestRun_Receivables(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), &stubService{}, []string{"ar"}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "INV-2026-00003") || !strings.Contains(out.String(), "24000.00") {
		t.Errorf("Unexpected receivables output:\n%s", out.String())
	}
}

func TestRun_ProfitLossArgs(t *testing.T) {
	svc := &stubService{}
	var out bytes.Buffer
	if err := Run(context.Background(), svc, []string{"pl", "2026-01-01", "2026-03-31"}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.gotFrom != "2026-01-01" || svc.gotTo != "2026-03-31" {
		t.Errorf("Expected range passed through, got %q..%q", svc.gotFrom, svc.gotTo)
	}
	if !strings.Contains(out.String(), "(open)") {
		t.Errorf("Expected an unbounded period rendered as (open):\n%s", out.String())
	}
}

func TestRun_Trend(t *testing.T) {
	svc := &stubService{}
	if err := Run(context.Background(), svc, []string{"trend", "12"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.gotMonth != 12 {
		t.Errorf("Expected 12 months, got %d", svc.gotMonth)
	}
	if err := Run(context.Background(), svc, []string{"trend", "x"}, &bytes.Buffer{}); err == nil {
		t.Error("Expected error for non-numeric months")
	}
}

func TestRun_CheckIntegrity(t *testing.T) {
	clean := &stubService{report: &core.IntegrityReport{Checks: []string{"negative_inventory"}}}
	var out bytes.Buffer
	if err := Run(context.Background(), clean, []string{"check-integrity"}, &out); err != nil {
		t.Fatalf("Expected clean report to pass, got %v", err)
	}
	if !strings.Contains(out.String(), "No violations found.") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	dirty := &stubService{report: &core.IntegrityReport{
		Checks:     []string{"sale_paid_matches_payments"},
		Violations: []core.Violation{{Check: "sale_paid_matches_payments", RefType: "Sales", RefID: 4, Detail: "paid 100.00, payments 0.00"}},
	}}
	out.Reset()
	err := Run(context.Background(), dirty, []string{"check-integrity"}, &out)
	if !errors.Is(err, ErrIntegrityViolations) {
		t.Errorf("Expected ErrIntegrityViolations, got %v", err)
	}
	if !strings.Contains(out.String(), "Sales#4") {
		t.Errorf("Expected violation listed:\n%s", out.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	err := Run(context.Background(), &stubService{}, []string{"propose"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("Expected unknown command error, got %v", err)
	}
}

func TestClip(t *testing.T) {
	if got := clip("Sri Lakshmi Rice Traders", 10); got != "Sri Laksh…" {
		t.Errorf("Expected %q, got %q", "Sri Laksh…", got)
	}
	if got := clip("IR20", 10); got != "IR20" {
		t.Errorf("Expected unchanged, got %q", got)
	}
}
