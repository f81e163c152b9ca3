package core

import (
	"context"
	"fmt"
	"time"
)

// Violation is one inconsistency found by the integrity check.
type Violation struct {
	Check   string `json:"check"`
	RefType string `json:"ref_type"`
	RefID   int64  `json:"ref_id"`
	Detail  string `json:"detail"`
}

type IntegrityReport struct {
	CheckedAt  time.Time   `json:"checked_at"`
	Checks     []string    `json:"checks"`
	Violations []Violation `json:"violations"`
}

func (r *IntegrityReport) OK() bool { return len(r.Violations) == 0 }

// IntegrityService audits stored records against the ledger invariants. It never writes.
type IntegrityService interface {
	Check(ctx context.Context) (*IntegrityReport, error)
}

type integrityService struct {
	pool pgxRowQuerier
}

func NewIntegrityService(pool pgxRowQuerier) IntegrityService {
	return &integrityService{pool: pool}
}

type integrityCheck struct {
	name  string
	query string // must select ref_type, ref_id, detail
}

var integrityChecks = []integrityCheck{
	{
		name: "negative_inventory",
		query: `SELECT 'inventory_item', id, 'quantity ' || quantity
			FROM inventory_items WHERE quantity < 0`,
	},
	{
		name: "sale_paid_matches_payments",
		query: `SELECT 'Sales', s.id, 'paid_amount ' || s.paid_amount || ' but payments sum to ' || COALESCE(p.total, 0)
			FROM sales s
			LEFT JOIN (SELECT ref_id, SUM(amount) AS total FROM payments WHERE ref_type = 'Sales' GROUP BY ref_id) p
			  ON p.ref_id = s.id
			WHERE s.paid_amount <> COALESCE(p.total, 0)`,
	},
	{
		name: "procurement_paid_matches_payments",
		query: `SELECT 'Procurement', r.id, 'paid_amount ' || r.paid_amount || ' but payments sum to ' || COALESCE(p.total, 0)
			FROM procurements r
			LEFT JOIN (SELECT ref_id, SUM(amount) AS total FROM payments WHERE ref_type = 'Procurement' GROUP BY ref_id) p
			  ON p.ref_id = r.id
			WHERE r.paid_amount <> COALESCE(p.total, 0)`,
	},
	{
		name: "sale_status_matches_amounts",
		query: `SELECT 'Sales', id, 'status ' || payment_status || ' with paid ' || paid_amount || ' of ' || total_amount
			FROM sales
			WHERE payment_status <> CASE
				WHEN paid_amount >= total_amount THEN 'Paid'
				WHEN paid_amount > 0 THEN 'Partial'
				ELSE 'Pending' END`,
	},
	{
		name: "procurement_status_matches_amounts",
		query: `SELECT 'Procurement', id, 'status ' || payment_status || ' with paid ' || paid_amount || ' of ' || total_amount
			FROM procurements
			WHERE payment_status <> CASE
				WHEN paid_amount >= total_amount THEN 'Paid'
				WHEN paid_amount > 0 THEN 'Partial'
				ELSE 'Pending' END`,
	},
	{
		name: "sale_total_formula",
		query: `SELECT 'Sales', id, 'total ' || total_amount || ' expected ' || (quantity_bags * rate_per_bag + transport_charge + gst_amount)
			FROM sales
			WHERE total_amount <> quantity_bags * rate_per_bag + transport_charge + gst_amount`,
	},
	{
		name: "procurement_total_formula",
		query: `SELECT 'Procurement', id, 'total ' || total_amount || ' expected ' || ROUND(quantity * rate_per_quintal, 2)
			FROM procurements
			WHERE total_amount <> ROUND(quantity * rate_per_quintal, 2)`,
	},
	{
		name: "orphan_payments",
		query: `SELECT 'Payment', p.id, p.payment_number || ' references missing ' || p.ref_type || ' ' || p.ref_id
			FROM payments p
			WHERE (p.ref_type = 'Sales'       AND NOT EXISTS (SELECT 1 FROM sales s WHERE s.id = p.ref_id))
			   OR (p.ref_type = 'Procurement' AND NOT EXISTS (SELECT 1 FROM procurements r WHERE r.id = p.ref_id))
			   OR (p.ref_type = 'Expense'     AND NOT EXISTS (SELECT 1 FROM expenses e WHERE e.id = p.ref_id))`,
	},
}

func (s *integrityService) Check(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{CheckedAt: now().UTC(), Violations: []Violation{}}
	for _, c := range integrityChecks {
		report.Checks = append(report.Checks, c.name)
		if err := s.run(ctx, c, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (s *integrityService) run(ctx context.Context, c integrityCheck, report *IntegrityReport) error {
	rows, err := s.pool.Query(ctx, c.query)
	if err != nil {
		return fmt.Errorf("integrity check %s failed: %w", c.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		v := Violation{Check: c.name}
		if err := rows.Scan(&v.RefType, &v.RefID, &v.Detail); err != nil {
			return fmt.Errorf("failed to scan %s violation: %w", c.name, err)
		}
		report.Violations = append(report.Violations, v)
	}
	return rows.Err()
}
