package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRef points at the document a payment settles.
type PaymentRef struct {
	Type RefType `json:"ref_type"`
	ID   int64   `json:"ref_id"`
}

func (r PaymentRef) String() string {
	return fmt.Sprintf("%s#%d", r.Type, r.ID)
}

type PaymentInput struct {
	Ref         PaymentRef
	Amount      decimal.Decimal
	PaymentMode PaymentMode // empty means Cash
	PaymentDate time.Time   // zero means today
	Notes       string
}

// PaymentRecord is an append-only receipt or disbursement.
type PaymentRecord struct {
	ID            int64           `json:"id"`
	PaymentNumber string          `json:"payment_number"`
	RefType       RefType         `json:"ref_type"`
	RefID         int64           `json:"ref_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	PaymentDate   time.Time       `json:"payment_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Settlement is the state of the referenced document after a payment was applied.
type Settlement struct {
	Payment       PaymentRecord   `json:"payment"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Balance       decimal.Decimal `json:"balance"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// OutstandingDocument is a receivable (sale) or payable (procurement) with a balance.
type OutstandingDocument struct {
	RefType       RefType         `json:"ref_type"`
	RefID         int64           `json:"ref_id"`
	Number        string          `json:"number,omitempty"`
	Party         string          `json:"party"`
	Date          time.Time       `json:"date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Balance       decimal.Decimal `json:"balance"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}
