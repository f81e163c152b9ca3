package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ExpenseService records operating costs. Expenses are settled when recorded.
type ExpenseService interface {
	CreateExpense(ctx context.Context, in ExpenseInput) (*Expense, error)
	ListExpenses(ctx context.Context) ([]Expense, error)
}

type expenseService struct {
	pool *pgxpool.Pool
}

func NewExpenseService(pool *pgxpool.Pool) ExpenseService {
	return &expenseService{pool: pool}
}

func (s *expenseService) CreateExpense(ctx context.Context, in ExpenseInput) (e *Expense, err error) {
	ctx, span := startSpan(ctx, "ExpenseService.CreateExpense")
	defer func() { endSpan(span, err) }()

	if in.PaymentMode == "" {
		in.PaymentMode = PaymentModeCash
	}
	in.Description = normalizeName(in.Description)
	in.Amount = money(in.Amount)

	fe := fieldErrors{}
	if !in.Category.Valid() {
		fe.add("category", fmt.Sprintf("unknown category %q", in.Category))
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	e = &Expense{Category: in.Category, Amount: in.Amount, PaymentMode: in.PaymentMode, Description: in.Description}
	err = tx.QueryRow(ctx, `
		INSERT INTO expenses (category, amount, payment_mode, description, expense_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, expense_date, created_at
	`, string(e.Category), e.Amount, string(e.PaymentMode), e.Description, dateOrToday(in.ExpenseDate),
	).Scan(&e.ID, &e.ExpenseDate, &e.CreatedAt)
	if err != nil {
		return nil, insertError("expense", err)
	}

	if err := enqueueEventTx(ctx, tx, EventExpenseRecorded, "expense", fmt.Sprint(e.ID), e); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return e, nil
}

func (s *expenseService) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category, amount, payment_mode, description, expense_date, created_at
		FROM expenses
		ORDER BY expense_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Amount, &e.PaymentMode, &e.Description, &e.ExpenseDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
