package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"rice-mill/internal/app"
	"rice-mill/internal/core"
)

// ErrIntegrityViolations is returned by check-integrity when any violation is found.
var ErrIntegrityViolations = errors.New("integrity violations found")

const usage = "Available: stock, low-stock, receivables, payables, dashboard, payments-summary, pl [from] [to], trend [months], check-integrity"

// Run executes a one-shot CLI command, writing its report to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", usage)
	}

	switch args[0] {
	case "stock", "inventory", "inv":
		result, err := svc.ListInventory(ctx)
		if err != nil {
			return fmt.Errorf("failed to list inventory: %w", err)
		}
		printInventory(out, "FINISHED STOCK", result)

	case "low-stock", "low":
		result, err := svc.LowStock(ctx)
		if err != nil {
			return fmt.Errorf("failed to list low stock: %w", err)
		}
		printInventory(out, "LOW STOCK", result)

	case "receivables", "ar":
		result, err := svc.Receivables(ctx)
		if err != nil {
			return fmt.Errorf("failed to list receivables: %w", err)
		}
		printOutstanding(out, "RECEIVABLES", "CUSTOMER", result)

	case "payables", "ap":
		result, err := svc.Payables(ctx)
		if err != nil {
			return fmt.Errorf("failed to list payables: %w", err)
		}
		printOutstanding(out, "PAYABLES", "SUPPLIER", result)

	case "dashboard", "dash":
		m, err := svc.DashboardMetrics(ctx)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}
		printDashboard(out, m)

	case "payments-summary":
		s, err := svc.PaymentSummary(ctx)
		if err != nil {
			return fmt.Errorf("failed to load payment summary: %w", err)
		}
		printPaymentSummary(out, s)

	case "pl":
		var from, to string
		if len(args) > 1 {
			from = args[1]
		}
		if len(args) > 2 {
			to = args[2]
		}
		s, err := svc.ProfitLossSummary(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to load P&L: %w", err)
		}
		printProfitLoss(out, s)

	case "trend":
		months := 0
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("months must be an integer: %q", args[1])
			}
			months = n
		}
		result, err := svc.ProfitLossTrend(ctx, months)
		if err != nil {
			return fmt.Errorf("failed to load P&L trend: %w", err)
		}
		printTrend(out, result)

	case "check-integrity", "integrity":
		report, err := svc.CheckIntegrity(ctx)
		if err != nil {
			return fmt.Errorf("integrity check failed to run: %w", err)
		}
		printIntegrity(out, report)
		if !report.OK() {
			return fmt.Errorf("%w: %d", ErrIntegrityViolations, len(report.Violations))
		}

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func rule(out io.Writer, ch string) {
	fmt.Fprintln(out, strings.Repeat(ch, 62))
}

func header(out io.Writer, title string) {
	fmt.Fprintln(out)
	rule(out, "=")
	fmt.Fprintf(out, "  %-58s\n", title)
	rule(out, "=")
}

func printInventory(out io.Writer, title string, result *app.InventoryListResult) {
	header(out, title)
	fmt.Fprintf(out, "  %-14s %-8s %4s %-14s %7s %6s\n", "VARIETY", "GRADE", "KG", "GODOWN", "BAGS", "MIN")
	rule(out, "-")
	for _, it := range result.Items {
		flag := ""
		if it.LowStock {
			flag = " !"
		}
		fmt.Fprintf(out, "  %-14s %-8s %4d %-14s %7d %6d%s\n",
			clip(it.RiceVariety, 14), it.Grade, it.BagSizeKg, clip(it.GodownLocation, 14), it.Quantity, it.MinimumThreshold, flag)
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-43s %7d\n", "TOTAL BAGS", result.TotalBags)
	rule(out, "=")
}

func printOutstanding(out io.Writer, title, partyLabel string, result *app.OutstandingResult) {
	header(out, title)
	fmt.Fprintf(out, "  %-16s %-20s %-10s %10s\n", "DOCUMENT", partyLabel, "DATE", "BALANCE")
	rule(out, "-")
	for _, d := range result.Documents {
		ref := d.Number
		if ref == "" {
			ref = fmt.Sprintf("#%d", d.RefID)
		}
		fmt.Fprintf(out, "  %-16s %-20s %-10s %10s\n",
			clip(ref, 16), clip(d.Party, 20), d.Date.Format("2006-01-02"), d.Balance.StringFixed(2))
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-48s %10s\n", "TOTAL OUTSTANDING", result.Total.StringFixed(2))
	rule(out, "=")
}

func printDashboard(out io.Writer, m *core.DashboardMetrics) {
	header(out, "DASHBOARD")
	rows := [][2]string{
		{"Paddy procured (t)", m.TotalProcuredQty.StringFixed(3)},
		{"Paddy milled (t)", m.TotalMilledInput.StringFixed(3)},
		{"Paddy stock (t)", m.PaddyStock.StringFixed(3)},
		{"Rice milled (t)", m.TotalMilledOutput.StringFixed(3)},
		{"Bags sold", strconv.FormatInt(m.BagsSold, 10)},
		{"Finished stock (t)", m.FinishedStockTons.StringFixed(3)},
		{"Finished stock (bags)", strconv.FormatInt(m.FinishedStockBags, 10)},
		{"Revenue", m.TotalRevenue.StringFixed(2)},
		{"Expenses", m.TotalExpenses.StringFixed(2)},
		{"Receivables outstanding", m.ReceivablesOutstanding.StringFixed(2)},
		{"Payables outstanding", m.PayablesOutstanding.StringFixed(2)},
		{"Low-stock items", strconv.FormatInt(m.LowStockItems, 10)},
		{"Milling batches", strconv.FormatInt(m.BatchCount, 10)},
		{"Average efficiency (%)", m.AverageEfficiency.StringFixed(2)},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-40s %18s\n", r[0], r[1])
	}
	rule(out, "=")
}

func printPaymentSummary(out io.Writer, s *core.PaymentSummary) {
	header(out, "PAYMENTS")
	fmt.Fprintf(out, "  %-10s %16s %16s %8s\n", "MODE", "RECEIVED", "PAID OUT", "COUNT")
	rule(out, "-")
	for _, m := range s.ByMode {
		fmt.Fprintf(out, "  %-10s %16s %16s %8d\n", m.PaymentMode, m.Received.StringFixed(2), m.PaidOut.StringFixed(2), m.Count)
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-10s %16s %16s %8d\n", "TOTAL", s.TotalReceived.StringFixed(2), s.TotalPaidOut.StringFixed(2), s.PaymentCount)
	fmt.Fprintf(out, "  Receivables outstanding : %s (%d open)\n", s.ReceivablesOutstanding.StringFixed(2), s.OpenReceivables)
	fmt.Fprintf(out, "  Payables outstanding    : %s (%d open)\n", s.PayablesOutstanding.StringFixed(2), s.OpenPayables)
	rule(out, "=")
}

func printProfitLoss(out io.Writer, s *core.ProfitLossSummary) {
	header(out, "PROFIT & LOSS")
	fmt.Fprintf(out, "  Period : %s to %s\n", dateOrOpen(s.Period.From), dateOrOpen(s.Period.To))
	rule(out, "-")
	fmt.Fprintf(out, "  %-40s %18s\n", "Revenue", s.Revenue.StringFixed(2))
	fmt.Fprintf(out, "  %-40s %18s\n", "Procurement cost", s.ProcurementCost.StringFixed(2))
	fmt.Fprintf(out, "  %-40s %18s\n", "Expenses", s.Expenses.StringFixed(2))
	for _, c := range s.ExpensesByCategory {
		fmt.Fprintf(out, "    %-38s %18s\n", c.Category, c.Amount.StringFixed(2))
	}
	rule(out, "-")
	fmt.Fprintf(out, "  %-40s %18s\n", "NET PROFIT", s.NetProfit.StringFixed(2))
	fmt.Fprintf(out, "  %-40s %17s%%\n", "Margin", s.ProfitMargin.StringFixed(2))
	rule(out, "=")
}

func printTrend(out io.Writer, result *app.TrendResult) {
	header(out, fmt.Sprintf("P&L TREND (last %d months)", result.Months))
	fmt.Fprintf(out, "  %-8s %12s %12s %12s %12s\n", "MONTH", "REVENUE", "PROCUREMENT", "EXPENSES", "NET")
	rule(out, "-")
	for _, p := range result.Points {
		fmt.Fprintf(out, "  %-8s %12s %12s %12s %12s\n", p.Month,
			p.Revenue.StringFixed(2), p.ProcurementCost.StringFixed(2), p.Expenses.StringFixed(2), p.NetProfit.StringFixed(2))
	}
	rule(out, "=")
}

func printIntegrity(out io.Writer, r *core.IntegrityReport) {
	header(out, "INTEGRITY CHECK")
	fmt.Fprintf(out, "  Checked at : %s\n", r.CheckedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Checks run : %d\n", len(r.Checks))
	rule(out, "-")
	if r.OK() {
		fmt.Fprintln(out, "  No violations found.")
	}
	for _, v := range r.Violations {
		fmt.Fprintf(out, "  [%s] %s#%d %s\n", v.Check, v.RefType, v.RefID, v.Detail)
	}
	rule(out, "=")
}

func dateOrOpen(t *time.Time) string {
	if t == nil {
		return "(open)"
	}
	return t.Format("2006-01-02")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
