package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MillingInput is one milling run as reported by the mill operator. Quantities are in tons.
type MillingInput struct {
	PaddyType      string
	RiceVariety    string // defaults to PaddyType
	InputPaddyQty  decimal.Decimal
	OutputRiceQty  decimal.Decimal
	BrokenRiceQty  decimal.Decimal
	HuskQty        decimal.Decimal
	MillingDate    time.Time // zero means today
	GodownLocation string    // empty means the configured default godown
}

// Yield is the efficiency and loss of a milling run, in percent of input.
type Yield struct {
	EfficiencyPercentage decimal.Decimal
	LossPercentage       decimal.Decimal
	Warnings             []string
}

// MillingBatch is an immutable record of one milling run.
type MillingBatch struct {
	ID                   int64           `json:"id"`
	BatchID              string          `json:"batch_id"`
	PaddyType            string          `json:"paddy_type"`
	RiceVariety          string          `json:"rice_variety"`
	InputPaddyQty        decimal.Decimal `json:"input_paddy_qty"`
	OutputRiceQty        decimal.Decimal `json:"output_rice_qty"`
	BrokenRiceQty        decimal.Decimal `json:"broken_rice_qty"`
	HuskQty              decimal.Decimal `json:"husk_qty"`
	EfficiencyPercentage decimal.Decimal `json:"efficiency_percentage"`
	LossPercentage       decimal.Decimal `json:"loss_percentage"`
	GodownLocation       string          `json:"godown_location"`
	MillingDate          time.Time       `json:"milling_date"`
	CreatedAt            time.Time       `json:"created_at"`

	// Filled on creation only.
	PremiumBagsCredited int64    `json:"premium_bags_credited,omitempty"`
	BrokenBagsCredited  int64    `json:"broken_bags_credited,omitempty"`
	Warnings            []string `json:"warnings,omitempty"`
}
