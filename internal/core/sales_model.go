package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleInput is a request to sell bags of one StockKey.
// PaidAmount is only read when PaymentStatus is Partial.
type SaleInput struct {
	CustomerName    string
	RiceVariety     string
	Grade           Grade
	BagSizeKg       int
	GodownLocation  string // empty means the configured default godown
	QuantityBags    int64
	RatePerBag      decimal.Decimal
	TransportCharge decimal.Decimal
	GSTAmount       decimal.Decimal
	PaymentStatus   PaymentStatus // empty means Pending
	PaidAmount      decimal.Decimal
	PaymentMode     PaymentMode // empty means Cash
	SaleDate        time.Time   // zero means today
}

// SaleInvoice is a persisted sale.
type SaleInvoice struct {
	ID              int64           `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	CustomerName    string          `json:"customer_name"`
	RiceVariety     string          `json:"rice_variety"`
	Grade           Grade           `json:"grade"`
	BagSizeKg       int             `json:"bag_size"`
	GodownLocation  string          `json:"godown_location"`
	QuantityBags    int64           `json:"quantity_bags"`
	RatePerBag      decimal.Decimal `json:"rate_per_bag"`
	TransportCharge decimal.Decimal `json:"transport_charge"`
	GSTAmount       decimal.Decimal `json:"gst_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	SaleDate        time.Time       `json:"sale_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Balance is the amount still owed by the customer.
func (s SaleInvoice) Balance() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// SaleTotal is quantity × rate + transport + GST.
func SaleTotal(quantityBags int64, ratePerBag, transport, gst decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantityBags).Mul(ratePerBag).Add(transport).Add(gst)
}
