package core

import (
	"time"
)

// StockKey identifies one stock-keeping unit of finished rice in one godown.
type StockKey struct {
	RiceVariety    string `json:"rice_variety"`
	Grade          Grade  `json:"grade"`
	BagSizeKg      int    `json:"bag_size"`
	GodownLocation string `json:"godown_location"`
}

// InventoryItem is the current bag count for a StockKey.
type InventoryItem struct {
	ID int64 `json:"id"`
	StockKey
	Quantity         int64     `json:"quantity"`
	MinimumThreshold int64     `json:"minimum_threshold"`
	LowStock         bool      `json:"low_stock"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type MovementType string

const (
	MovementMillingCredit MovementType = "MILLING_CREDIT"
	MovementSaleDebit     MovementType = "SALE_DEBIT"
	MovementAdjustment    MovementType = "ADJUSTMENT"
)

// InventoryMovement is one signed change to an item's quantity.
type InventoryMovement struct {
	ID              int64        `json:"id"`
	InventoryItemID int64        `json:"inventory_item_id"`
	MovementType    MovementType `json:"movement_type"`
	Quantity        int64        `json:"quantity"`
	BalanceAfter    int64        `json:"balance_after"`
	Reference       string       `json:"reference,omitempty"`
	Reason          string       `json:"reason,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
