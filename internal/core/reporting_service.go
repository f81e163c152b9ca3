package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReportingService provides read-only aggregations over the mill's records.
type ReportingService interface {
	DashboardMetrics(ctx context.Context) (*DashboardMetrics, error)
	ProfitLossSummary(ctx context.Context, period DateRange) (*ProfitLossSummary, error)
	// ProfitLossTrend returns the last months calendar months, oldest first, zero-filled.
	ProfitLossTrend(ctx context.Context, months int) ([]TrendPoint, error)
	PaymentSummary(ctx context.Context) (*PaymentSummary, error)
}

const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 36
)

type reportingService struct {
	pool  *pgxpool.Pool
	units Units
}

func NewReportingService(pool *pgxpool.Pool, units Units) ReportingService {
	return &reportingService{pool: pool, units: units}
}

func (s *reportingService) DashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	var m DashboardMetrics
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(quantity), 0) FROM procurements),
			(SELECT COALESCE(SUM(input_paddy_qty), 0) FROM milling_batches),
			(SELECT COALESCE(SUM(output_rice_qty + broken_rice_qty), 0) FROM milling_batches),
			(SELECT COALESCE(SUM(quantity_bags), 0)::bigint FROM sales),
			(SELECT COALESCE(SUM(quantity), 0)::bigint FROM inventory_items),
			(SELECT COALESCE(SUM(total_amount), 0) FROM sales),
			(SELECT COALESCE(SUM(amount), 0) FROM expenses),
			(SELECT COALESCE(SUM(total_amount - paid_amount), 0) FROM sales),
			(SELECT COALESCE(SUM(total_amount - paid_amount), 0) FROM procurements),
			(SELECT COUNT(*) FROM inventory_items WHERE quantity < minimum_threshold),
			(SELECT COUNT(*) FROM milling_batches),
			(SELECT COALESCE(ROUND(AVG(efficiency_percentage), 2), 0) FROM milling_batches)
	`).Scan(
		&m.TotalProcuredQty, &m.TotalMilledInput, &m.TotalMilledOutput, &m.BagsSold, &m.FinishedStockBags,
		&m.TotalRevenue, &m.TotalExpenses, &m.ReceivablesOutstanding, &m.PayablesOutstanding,
		&m.LowStockItems, &m.BatchCount, &m.AverageEfficiency,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard metrics: %w", err)
	}

	m.PaddyStock = m.TotalProcuredQty.Sub(m.TotalMilledInput)
	m.FinishedStockTons = FinishedStockTons(m.TotalMilledOutput, m.BagsSold, s.units)
	return &m, nil
}

func (s *reportingService) ProfitLossSummary(ctx context.Context, period DateRange) (*ProfitLossSummary, error) {
	if period.From != nil && period.To != nil && period.From.After(*period.To) {
		return nil, NewValidationError("from", "must not be after to")
	}

	r := &ProfitLossSummary{Period: period, ExpensesByCategory: []CategoryTotal{}}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(total_amount), 0) FROM sales
			  WHERE ($1::date IS NULL OR sale_date >= $1) AND ($2::date IS NULL OR sale_date <= $2)),
			(SELECT COALESCE(SUM(total_amount), 0) FROM procurements
			  WHERE ($1::date IS NULL OR purchase_date >= $1) AND ($2::date IS NULL OR purchase_date <= $2)),
			(SELECT COALESCE(SUM(amount), 0) FROM expenses
			  WHERE ($1::date IS NULL OR expense_date >= $1) AND ($2::date IS NULL OR expense_date <= $2))
	`, period.From, period.To).Scan(&r.Revenue, &r.ProcurementCost, &r.Expenses)
	if err != nil {
		return nil, fmt.Errorf("failed to compute profit and loss: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT category, SUM(amount)
		FROM expenses
		WHERE ($1::date IS NULL OR expense_date >= $1) AND ($2::date IS NULL OR expense_date <= $2)
		GROUP BY category
		ORDER BY SUM(amount) DESC, category
	`, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense category: %w", err)
		}
		r.ExpensesByCategory = append(r.ExpensesByCategory, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expenses by category: %w", err)
	}

	r.NetProfit = NetProfit(r.Revenue, r.ProcurementCost, r.Expenses)
	r.ProfitMargin = ProfitMargin(r.NetProfit, r.Revenue)
	return r, nil
}

// trendStart returns the first day of the earliest month in a months-long window ending at t.
func trendStart(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(months - 1), 0)
}

func (s *reportingService) ProfitLossTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	if months > MaxTrendMonths {
		return nil, NewValidationError("months", fmt.Sprintf("must be at most %d", MaxTrendMonths))
	}
	today := dateOrToday(time.Time{})
	start := trendStart(today, months)

	rows, err := s.pool.Query(ctx, `
		WITH months AS (
			SELECT generate_series($1::date, date_trunc('month', $2::date)::date, interval '1 month')::date AS m
		),
		revenue AS (
			SELECT date_trunc('month', sale_date)::date AS m, SUM(total_amount) AS amt
			FROM sales WHERE sale_date >= $1 GROUP BY 1
		),
		procurement AS (
			SELECT date_trunc('month', purchase_date)::date AS m, SUM(total_amount) AS amt
			FROM procurements WHERE purchase_date >= $1 GROUP BY 1
		),
		spend AS (
			SELECT date_trunc('month', expense_date)::date AS m, SUM(amount) AS amt
			FROM expenses WHERE expense_date >= $1 GROUP BY 1
		)
		SELECT to_char(months.m, 'YYYY-MM'),
		       COALESCE(revenue.amt, 0), COALESCE(procurement.amt, 0), COALESCE(spend.amt, 0)
		FROM months
		LEFT JOIN revenue     ON revenue.m = months.m
		LEFT JOIN procurement ON procurement.m = months.m
		LEFT JOIN spend       ON spend.m = months.m
		ORDER BY months.m
	`, start, today)
	if err != nil {
		return nil, fmt.Errorf("failed to query profit and loss trend: %w", err)
	}
	defer rows.Close()

	points := make([]TrendPoint, 0, months)
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Month, &p.Revenue, &p.ProcurementCost, &p.Expenses); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		p.NetProfit = NetProfit(p.Revenue, p.ProcurementCost, p.Expenses)
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *reportingService) PaymentSummary(ctx context.Context) (*PaymentSummary, error) {
	ps := &PaymentSummary{ByMode: []ModeTotal{}}

	rows, err := s.pool.Query(ctx, `
		SELECT payment_mode,
		       COALESCE(SUM(amount) FILTER (WHERE ref_type = 'Sales'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE ref_type = 'Procurement'), 0),
		       COUNT(*)
		FROM payments
		GROUP BY payment_mode
		ORDER BY payment_mode
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment totals: %w", err)
	}
	defer rows.Close()

	received, paidOut := decimal.Zero, decimal.Zero
	for rows.Next() {
		var mt ModeTotal
		if err := rows.Scan(&mt.PaymentMode, &mt.Received, &mt.PaidOut, &mt.Count); err != nil {
			return nil, fmt.Errorf("failed to scan payment totals: %w", err)
		}
		received = received.Add(mt.Received)
		paidOut = paidOut.Add(mt.PaidOut)
		ps.PaymentCount += mt.Count
		ps.ByMode = append(ps.ByMode, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payment totals: %w", err)
	}
	ps.TotalReceived, ps.TotalPaidOut = received, paidOut

	err = s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(total_amount - paid_amount), 0) FROM sales),
			(SELECT COUNT(*) FROM sales WHERE paid_amount < total_amount),
			(SELECT COALESCE(SUM(total_amount - paid_amount), 0) FROM procurements),
			(SELECT COUNT(*) FROM procurements WHERE paid_amount < total_amount)
	`).Scan(&ps.ReceivablesOutstanding, &ps.OpenReceivables, &ps.PayablesOutstanding, &ps.OpenPayables)
	if err != nil {
		return nil, fmt.Errorf("failed to compute outstanding balances: %w", err)
	}
	return ps, nil
}
