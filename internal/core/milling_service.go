package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

var hundred = decimal.NewFromInt(100)

// ComputeYield returns efficiency = (output+broken)/input×100 and
// loss = (input-(output+broken+husk))/input×100. Outputs that add up to more
// than the input produce a negative loss and a warning, not an error.
func ComputeYield(input, output, broken, husk decimal.Decimal) (Yield, error) {
	fe := fieldErrors{}
	if !input.IsPositive() {
		fe.add("input_paddy_qty", "must be greater than zero")
	}
	if output.IsNegative() {
		fe.add("output_rice_qty", "cannot be negative")
	}
	if broken.IsNegative() {
		fe.add("broken_rice_qty", "cannot be negative")
	}
	if husk.IsNegative() {
		fe.add("husk_qty", "cannot be negative")
	}
	if err := fe.err(); err != nil {
		return Yield{}, err
	}

	rice := output.Add(broken)
	y := Yield{
		EfficiencyPercentage: rice.Mul(hundred).Div(input),
		LossPercentage:       input.Sub(rice.Add(husk)).Mul(hundred).Div(input),
	}
	if y.LossPercentage.IsNegative() {
		y.Warnings = append(y.Warnings, fmt.Sprintf(
			"outputs (%s t) exceed input (%s t); loss is %s%%",
			rice.Add(husk), input, y.LossPercentage.StringFixed(2)))
	}
	return y, nil
}

// BagsForTons converts tons to whole bags, dropping any partial bag.
func BagsForTons(qty decimal.Decimal, units Units) (bags int64, remainder decimal.Decimal) {
	var exact decimal.Decimal
	if units.bagsFromSize && units.BagSizeKg > 0 {
		exact = qty.Mul(kgPerTon).Div(decimal.NewFromInt(int64(units.BagSizeKg)))
	} else {
		exact = qty.Mul(units.BagsPerTon)
	}
	whole := exact.Floor()
	return whole.IntPart(), exact.Sub(whole)
}

// MillingService records milling runs and credits their finished rice to stock.
type MillingService interface {
	CreateBatch(ctx context.Context, in MillingInput) (*MillingBatch, error)
	ListBatches(ctx context.Context) ([]MillingBatch, error)
}

type millingService struct {
	pool          *pgxpool.Pool
	inventory     InventoryService
	docs          DocumentService
	units         Units
	defaultGodown string
}

func NewMillingService(pool *pgxpool.Pool, inventory InventoryService, docs DocumentService, units Units, defaultGodown string) MillingService {
	return &millingService{pool: pool, inventory: inventory, docs: docs, units: units, defaultGodown: defaultGodown}
}

// CreateBatch inserts the batch and both stock credits in one transaction.
func (s *millingService) CreateBatch(ctx context.Context, in MillingInput) (batch *MillingBatch, err error) {
	ctx, span := startSpan(ctx, "MillingService.CreateBatch", attribute.String("milling.paddy_type", in.PaddyType))
	defer func() { endSpan(span, err) }()

	if err := s.units.validate(); err != nil {
		return nil, err
	}

	in.PaddyType = normalizeName(in.PaddyType)
	in.RiceVariety = normalizeName(in.RiceVariety)
	if in.RiceVariety == "" {
		in.RiceVariety = in.PaddyType
	}
	in.GodownLocation = normalizeName(in.GodownLocation)
	if in.GodownLocation == "" {
		in.GodownLocation = s.defaultGodown
	}
	in.InputPaddyQty = tons(in.InputPaddyQty)
	in.OutputRiceQty = tons(in.OutputRiceQty)
	in.BrokenRiceQty = tons(in.BrokenRiceQty)
	in.HuskQty = tons(in.HuskQty)
	if in.PaddyType == "" {
		return nil, NewValidationError("paddy_type", "is required")
	}

	yield, err := ComputeYield(in.InputPaddyQty, in.OutputRiceQty, in.BrokenRiceQty, in.HuskQty)
	if err != nil {
		return nil, err
	}

	millingDate := dateOrToday(in.MillingDate)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batchID, err := s.docs.NextNumberTx(ctx, tx, PrefixBatch, millingDate)
	if err != nil {
		return nil, err
	}

	b := MillingBatch{
		BatchID:              batchID,
		PaddyType:            in.PaddyType,
		RiceVariety:          in.RiceVariety,
		InputPaddyQty:        in.InputPaddyQty,
		OutputRiceQty:        in.OutputRiceQty,
		BrokenRiceQty:        in.BrokenRiceQty,
		HuskQty:              in.HuskQty,
		EfficiencyPercentage: yield.EfficiencyPercentage,
		LossPercentage:       yield.LossPercentage,
		GodownLocation:       in.GodownLocation,
		Warnings:             yield.Warnings,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO milling_batches (
			batch_id, paddy_type, rice_variety, input_paddy_qty, output_rice_qty, broken_rice_qty,
			husk_qty, efficiency_percentage, loss_percentage, godown_location, milling_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, milling_date, created_at
	`, b.BatchID, b.PaddyType, b.RiceVariety, b.InputPaddyQty, b.OutputRiceQty, b.BrokenRiceQty,
		b.HuskQty, b.EfficiencyPercentage, b.LossPercentage, b.GodownLocation, millingDate,
	).Scan(&b.ID, &b.MillingDate, &b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: batch %s already exists", ErrConflict, b.BatchID)
		}
		return nil, insertError("milling batch", err)
	}

	credits := []struct {
		grade Grade
		tons  decimal.Decimal
		bags  *int64
	}{
		{GradePremium, b.OutputRiceQty, &b.PremiumBagsCredited},
		{GradeBroken, b.BrokenRiceQty, &b.BrokenBagsCredited},
	}
	for _, c := range credits {
		bags, rem := BagsForTons(c.tons, s.units)
		if !rem.IsZero() {
			b.Warnings = append(b.Warnings, fmt.Sprintf("%s bag(s) of %s not credited (partial bag)", rem.StringFixed(2), c.grade))
		}
		if bags == 0 {
			continue
		}
		key := StockKey{RiceVariety: b.RiceVariety, Grade: c.grade, BagSizeKg: s.units.BagSizeKg, GodownLocation: b.GodownLocation}
		if _, err := s.inventory.CreditTx(ctx, tx, key, bags, b.BatchID); err != nil {
			return nil, fmt.Errorf("failed to credit %s stock: %w", c.grade, err)
		}
		*c.bags = bags
	}

	if err := enqueueEventTx(ctx, tx, EventMillingBatchRecorded, "milling_batch", b.BatchID, b); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &b, nil
}

func (s *millingService) ListBatches(ctx context.Context) ([]MillingBatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, batch_id, paddy_type, rice_variety, input_paddy_qty, output_rice_qty, broken_rice_qty,
		       husk_qty, efficiency_percentage, loss_percentage, godown_location, milling_date, created_at
		FROM milling_batches
		ORDER BY milling_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query milling batches: %w", err)
	}
	defer rows.Close()

	batches := []MillingBatch{}
	for rows.Next() {
		var b MillingBatch
		if err := rows.Scan(&b.ID, &b.BatchID, &b.PaddyType, &b.RiceVariety, &b.InputPaddyQty, &b.OutputRiceQty,
			&b.BrokenRiceQty, &b.HuskQty, &b.EfficiencyPercentage, &b.LossPercentage, &b.GodownLocation,
			&b.MillingDate, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan milling batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
