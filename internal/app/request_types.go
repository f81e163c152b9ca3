package app

import (
	"github.com/shopspring/decimal"
)

// Dates are YYYY-MM-DD; empty means today.
// Validation tags are checked before the request reaches core, which re-checks domain rules.

// MillingRequest is the input for recording a milling batch. Quantities are in tons.
type MillingRequest struct {
	PaddyType      string          `json:"paddy_type" validate:"required,max=100"`
	RiceVariety    string          `json:"rice_variety" validate:"max=100"`
	InputPaddyQty  decimal.Decimal `json:"input_paddy_qty" validate:"gt=0"`
	OutputRiceQty  decimal.Decimal `json:"output_rice_qty" validate:"gte=0"`
	BrokenRiceQty  decimal.Decimal `json:"broken_rice_qty" validate:"gte=0"`
	HuskQty        decimal.Decimal `json:"husk_qty" validate:"gte=0"`
	MillingDate    string          `json:"milling_date" validate:"omitempty,datetime=2006-01-02"`
	GodownLocation string          `json:"godown_location" validate:"max=100"`
}

// SaleRequest is the input for selling bags from stock.
type SaleRequest struct {
	CustomerName    string          `json:"customer_name" validate:"required,max=200"`
	RiceVariety     string          `json:"rice_variety" validate:"required,max=100"`
	Grade           string          `json:"grade" validate:"required,oneof=Premium Broken"`
	BagSize         int             `json:"bag_size" validate:"gt=0"`
	GodownLocation  string          `json:"godown_location" validate:"max=100"`
	QuantityBags    int64           `json:"quantity_bags" validate:"gt=0"`
	RatePerBag      decimal.Decimal `json:"rate_per_bag" validate:"gte=0"`
	TransportCharge decimal.Decimal `json:"transport_charge" validate:"gte=0"`
	GSTAmount       decimal.Decimal `json:"gst_amount" validate:"gte=0"`
	PaymentStatus   string          `json:"payment_status" validate:"omitempty,oneof=Pending Partial Paid"`
	PaidAmount      decimal.Decimal `json:"paid_amount" validate:"gte=0"`
	PaymentMode     string          `json:"payment_mode" validate:"omitempty,oneof=Cash Bank"`
	SaleDate        string          `json:"sale_date" validate:"omitempty,datetime=2006-01-02"`
}

// ProcurementRequest is the input for recording a paddy purchase.
type ProcurementRequest struct {
	SupplierName       string          `json:"supplier_name" validate:"required,max=200"`
	PaddyType          string          `json:"paddy_type" validate:"required,max=100"`
	MoisturePercentage decimal.Decimal `json:"moisture_percentage" validate:"gte=0,lte=100"`
	Quantity           decimal.Decimal `json:"quantity" validate:"gt=0"`
	RatePerQuintal     decimal.Decimal `json:"rate_per_quintal" validate:"gte=0"`
	PurchaseDate       string          `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
}

// PaymentRequest is the input for recording a payment against a document.
type PaymentRequest struct {
	RefType     string          `json:"ref_type" validate:"required,oneof=Sales Procurement Expense"`
	RefID       int64           `json:"ref_id" validate:"gt=0"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMode string          `json:"payment_mode" validate:"omitempty,oneof=Cash Bank"`
	PaymentDate string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Notes       string          `json:"notes" validate:"max=500"`
}

// PaymentFilter restricts ListPayments to one document. A zero value lists all payments.
type PaymentFilter struct {
	RefType string `json:"ref_type" validate:"omitempty,oneof=Sales Procurement Expense"`
	RefID   int64  `json:"ref_id" validate:"gte=0"`
}

// ExpenseRequest is the input for recording an operating expense.
type ExpenseRequest struct {
	Category    string          `json:"category" validate:"required,oneof=Labour Electricity Fuel Transport Maintenance Packaging Rent Salary Other"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMode string          `json:"payment_mode" validate:"omitempty,oneof=Cash Bank"`
	Description string          `json:"description" validate:"max=500"`
	ExpenseDate string          `json:"expense_date" validate:"omitempty,datetime=2006-01-02"`
}

// AdjustInventoryRequest is a manual stock correction. Adjustment is signed.
type AdjustInventoryRequest struct {
	ID         int64  `json:"id" validate:"gt=0"`
	Adjustment int64  `json:"adjustment" validate:"ne=0"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

// SetThresholdRequest sets an item's low-stock threshold in bags.
type SetThresholdRequest struct {
	ID               int64 `json:"id" validate:"gt=0"`
	MinimumThreshold int64 `json:"minimum_threshold" validate:"gte=0"`
}
