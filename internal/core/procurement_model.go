package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcurementInput is a paddy purchase from a supplier.
type ProcurementInput struct {
	SupplierName       string
	PaddyType          string
	MoisturePercentage decimal.Decimal
	Quantity           decimal.Decimal
	RatePerQuintal     decimal.Decimal
	PurchaseDate       time.Time // zero means today
}

// ProcurementRecord is a persisted paddy purchase; it is a payable until Paid.
type ProcurementRecord struct {
	ID                 int64           `json:"id"`
	SupplierName       string          `json:"supplier_name"`
	PaddyType          string          `json:"paddy_type"`
	MoisturePercentage decimal.Decimal `json:"moisture_percentage"`
	Quantity           decimal.Decimal `json:"quantity"`
	RatePerQuintal     decimal.Decimal `json:"rate_per_quintal"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	PurchaseDate       time.Time       `json:"purchase_date"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (p ProcurementRecord) Balance() decimal.Decimal {
	return p.TotalAmount.Sub(p.PaidAmount)
}

// ProcurementTotal is quantity × rate, rounded to the currency's two places.
func ProcurementTotal(quantity, rate decimal.Decimal) decimal.Decimal {
	return quantity.Mul(rate).Round(2)
}
