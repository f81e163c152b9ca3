package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// InventoryService is the finished-goods stock ledger. Quantities are whole bags
// and can never go below zero.
type InventoryService interface {
	// Standalone operations (manage their own transactions).
	ListItems(ctx context.Context) ([]InventoryItem, error)
	GetItem(ctx context.Context, id int64) (*InventoryItem, error)
	// LowStock returns items whose quantity is below their minimum threshold.
	LowStock(ctx context.Context) ([]InventoryItem, error)
	Movements(ctx context.Context, itemID int64, limit int) ([]InventoryMovement, error)
	// Adjust applies a signed manual correction and records the reason.
	Adjust(ctx context.Context, id, adjustment int64, reason string) (*InventoryItem, error)
	SetThreshold(ctx context.Context, id, threshold int64) (*InventoryItem, error)

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by MillingService and SalesService to keep stock changes atomic with their documents.

	// CreditTx adds bags to key, creating the item on first use.
	CreditTx(ctx context.Context, tx pgx.Tx, key StockKey, bags int64, reference string) (*InventoryItem, error)
	// DebitTx removes bags from key in one conditional update. It returns ErrNotFound
	// when no item exists for key and ErrInsufficientStock when fewer than bags remain.
	DebitTx(ctx context.Context, tx pgx.Tx, key StockKey, bags int64, reference string) (*InventoryItem, error)
}

type inventoryService struct {
	pool          *pgxpool.Pool
	defaultGodown string
}

func NewInventoryService(pool *pgxpool.Pool, defaultGodown string) InventoryService {
	return &inventoryService{pool: pool, defaultGodown: defaultGodown}
}

const inventoryColumns = `
	id, rice_variety, grade, bag_size_kg, godown_location,
	quantity, minimum_threshold, created_at, updated_at`

func scanItem(row pgx.Row) (*InventoryItem, error) {
	var it InventoryItem
	if err := row.Scan(
		&it.ID, &it.RiceVariety, &it.Grade, &it.BagSizeKg, &it.GodownLocation,
		&it.Quantity, &it.MinimumThreshold, &it.CreatedAt, &it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	it.LowStock = it.Quantity < it.MinimumThreshold
	return &it, nil
}

// normalizeKey trims the free-text parts and fills in the default godown.
func (s *inventoryService) normalizeKey(k StockKey) (StockKey, error) {
	k.RiceVariety = normalizeName(k.RiceVariety)
	k.Grade = Grade(normalizeName(string(k.Grade)))
	k.GodownLocation = normalizeName(k.GodownLocation)
	if k.GodownLocation == "" {
		k.GodownLocation = s.defaultGodown
	}

	fe := fieldErrors{}
	if k.RiceVariety == "" {
		fe.add("rice_variety", "is required")
	}
	if k.Grade == "" {
		fe.add("grade", "is required")
	}
	if k.BagSizeKg <= 0 {
		fe.add("bag_size", "must be positive")
	}
	if k.GodownLocation == "" {
		fe.add("godown_location", "is required")
	}
	return k, fe.err()
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *inventoryService) ListItems(ctx context.Context) ([]InventoryItem, error) {
	return s.queryItems(ctx, `SELECT `+inventoryColumns+`
		FROM inventory_items
		ORDER BY rice_variety, grade, bag_size_kg, godown_location`)
}

func (s *inventoryService) LowStock(ctx context.Context) ([]InventoryItem, error) {
	return s.queryItems(ctx, `SELECT `+inventoryColumns+`
		FROM inventory_items
		WHERE quantity < minimum_threshold
		ORDER BY (minimum_threshold - quantity) DESC, rice_variety, grade`)
}

func (s *inventoryService) queryItems(ctx context.Context, query string) ([]InventoryItem, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	items := []InventoryItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *inventoryService) GetItem(ctx context.Context, id int64) (*InventoryItem, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("inventory item %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch inventory item: %w", err)
	}
	return it, nil
}

func (s *inventoryService) Movements(ctx context.Context, itemID int64, limit int) ([]InventoryMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, inventory_item_id, movement_type, quantity, balance_after, reference, reason, created_at
		FROM inventory_movements
		WHERE inventory_item_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory movements: %w", err)
	}
	defer rows.Close()

	movements := []InventoryMovement{}
	for rows.Next() {
		var m InventoryMovement
		if err := rows.Scan(&m.ID, &m.InventoryItemID, &m.MovementType, &m.Quantity,
			&m.BalanceAfter, &m.Reference, &m.Reason, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (s *inventoryService) Adjust(ctx context.Context, id, adjustment int64, reason string) (item *InventoryItem, err error) {
	ctx, span := startSpan(ctx, "InventoryService.Adjust",
		attribute.Int64("inventory.item_id", id), attribute.Int64("inventory.adjustment", adjustment))
	defer func() { endSpan(span, err) }()

	reason = normalizeName(reason)
	fe := fieldErrors{}
	if adjustment == 0 {
		fe.add("adjustment", "must be non-zero")
	}
	if reason == "" {
		fe.add("reason", "is required")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The quantity guard in WHERE makes the check and the write one atomic step.
	item, err = scanItem(tx.QueryRow(ctx, `
		UPDATE inventory_items
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING `+inventoryColumns, id, adjustment))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to adjust inventory item: %w", err)
		}
		var current int64
		if qerr := tx.QueryRow(ctx, "SELECT quantity FROM inventory_items WHERE id = $1", id).Scan(&current); qerr != nil {
			if errors.Is(qerr, pgx.ErrNoRows) {
				return nil, notFoundf("inventory item %d not found", id)
			}
			return nil, fmt.Errorf("failed to read inventory item: %w", qerr)
		}
		return nil, insufficientStockf("item %d has %d bags, cannot adjust by %d", id, current, adjustment)
	}

	if err := recordMovementTx(ctx, tx, item.ID, MovementAdjustment, adjustment, item.Quantity, "", reason); err != nil {
		return nil, err
	}
	if err := enqueueEventTx(ctx, tx, EventInventoryAdjusted, "inventory_item", fmt.Sprint(item.ID), map[string]any{
		"item":       item,
		"adjustment": adjustment,
		"reason":     reason,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return item, nil
}

func (s *inventoryService) SetThreshold(ctx context.Context, id, threshold int64) (*InventoryItem, error) {
	if threshold < 0 {
		return nil, NewValidationError("minimum_threshold", "cannot be negative")
	}
	item, err := scanItem(s.pool.QueryRow(ctx, `
		UPDATE inventory_items
		SET minimum_threshold = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+inventoryColumns, id, threshold))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("inventory item %d not found", id)
		}
		return nil, fmt.Errorf("failed to update minimum threshold: %w", err)
	}
	return item, nil
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

func (s *inventoryService) CreditTx(ctx context.Context, tx pgx.Tx, key StockKey, bags int64, reference string) (*InventoryItem, error) {
	if bags <= 0 {
		return nil, NewValidationError("quantity", fmt.Sprintf("credit must be positive, got %d", bags))
	}
	key, err := s.normalizeKey(key)
	if err != nil {
		return nil, err
	}

	item, err := scanItem(tx.QueryRow(ctx, `
		INSERT INTO inventory_items (rice_variety, grade, bag_size_kg, godown_location, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (rice_variety, grade, bag_size_kg, godown_location)
		DO UPDATE SET quantity = inventory_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING `+inventoryColumns,
		key.RiceVariety, string(key.Grade), key.BagSizeKg, key.GodownLocation, bags))
	if err != nil {
		return nil, fmt.Errorf("failed to credit inventory: %w", err)
	}

	if err := recordMovementTx(ctx, tx, item.ID, MovementMillingCredit, bags, item.Quantity, reference, ""); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) DebitTx(ctx context.Context, tx pgx.Tx, key StockKey, bags int64, reference string) (*InventoryItem, error) {
	if bags <= 0 {
		return nil, NewValidationError("quantity_bags", "must be positive")
	}
	key, err := s.normalizeKey(key)
	if err != nil {
		return nil, err
	}

	item, err := scanItem(tx.QueryRow(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - $5, updated_at = NOW()
		WHERE rice_variety = $1 AND grade = $2 AND bag_size_kg = $3 AND godown_location = $4
		  AND quantity >= $5
		RETURNING `+inventoryColumns,
		key.RiceVariety, string(key.Grade), key.BagSizeKg, key.GodownLocation, bags))
	if err != nil {
		if isCheckViolation(err) {
			return nil, insufficientStockf("%s %s %dkg at %s", key.RiceVariety, key.Grade, key.BagSizeKg, key.GodownLocation)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to debit inventory: %w", err)
		}
		var available int64
		qerr := tx.QueryRow(ctx, `
			SELECT quantity FROM inventory_items
			WHERE rice_variety = $1 AND grade = $2 AND bag_size_kg = $3 AND godown_location = $4
		`, key.RiceVariety, string(key.Grade), key.BagSizeKg, key.GodownLocation).Scan(&available)
		if qerr != nil {
			if errors.Is(qerr, pgx.ErrNoRows) {
				return nil, notFoundf("no stock item for %s %s %dkg at %s",
					key.RiceVariety, key.Grade, key.BagSizeKg, key.GodownLocation)
			}
			return nil, fmt.Errorf("failed to read inventory item: %w", qerr)
		}
		return nil, insufficientStockf("requested %d bags of %s %s %dkg, only %d available",
			bags, key.RiceVariety, key.Grade, key.BagSizeKg, available)
	}

	if err := recordMovementTx(ctx, tx, item.ID, MovementSaleDebit, -bags, item.Quantity, reference, ""); err != nil {
		return nil, err
	}
	return item, nil
}

func recordMovementTx(ctx context.Context, q pgxExecer, itemID int64, mt MovementType, qty, balanceAfter int64, reference, reason string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO inventory_movements (inventory_item_id, movement_type, quantity, balance_after, reference, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, itemID, string(mt), qty, balanceAfter, reference, reason)
	if err != nil {
		return fmt.Errorf("failed to record inventory movement: %w", err)
	}
	return nil
}
