package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseInput struct {
	Category    ExpenseCategory
	Amount      decimal.Decimal
	PaymentMode PaymentMode // empty means Cash
	Description string
	ExpenseDate time.Time // zero means today
}

// Expense is an operating cost, settled when recorded.
type Expense struct {
	ID          int64           `json:"id"`
	Category    ExpenseCategory `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode PaymentMode     `json:"payment_mode"`
	Description string          `json:"description,omitempty"`
	ExpenseDate time.Time       `json:"expense_date"`
	CreatedAt   time.Time       `json:"created_at"`
}
