package core_test

import (
	"errors"
	"strings"
	"testing"

	"rice-mill/internal/core"
)

func TestMilling_CreateBatchCreditsStock(t *testing.T) {
	env := setupEnv(t)

	batch, err := env.milling.CreateBatch(env.ctx, core.MillingInput{
		PaddyType:     "Sona Masoori",
		InputPaddyQty: d("10"),
		OutputRiceQty: d("6.5"),
		BrokenRiceQty: d("0.5"),
		HuskQty:       d("2"),
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	if !batch.EfficiencyPercentage.Equal(d("70")) {
		t.Errorf("Expected efficiency 70, got %s", batch.EfficiencyPercentage)
	}
	if !batch.LossPercentage.Equal(d("10")) {
		t.Errorf("Expected loss 10, got %s", batch.LossPercentage)
	}
	if !strings.HasPrefix(batch.BatchID, "BATCH-") || !strings.HasSuffix(batch.BatchID, "-00001") {
		t.Errorf("Unexpected batch id %q", batch.BatchID)
	}
	if batch.RiceVariety != "Sona Masoori" {
		t.Errorf("Expected rice variety to default to paddy type, got %q", batch.RiceVariety)
	}
	if batch.PremiumBagsCredited != 130 || batch.BrokenBagsCredited != 10 {
		t.Errorf("Expected 130/10 bags credited, got %d/%d", batch.PremiumBagsCredited, batch.BrokenBagsCredited)
	}

	if got := stockOf(t, env, "Sona Masoori", core.GradePremium); got != 130 {
		t.Errorf("Expected 130 Premium bags, got %d", got)
	}
	if got := stockOf(t, env, "Sona Masoori", core.GradeBroken); got != 10 {
		t.Errorf("Expected 10 Broken bags, got %d", got)
	}

	// A second batch adds to the same items.
	if _, err := env.milling.CreateBatch(env.ctx, core.MillingInput{
		PaddyType: "Sona Masoori", InputPaddyQty: d("1"), OutputRiceQty: d("0.5"), BrokenRiceQty: d("0"), HuskQty: d("0.3"),
	}); err != nil {
		t.Fatalf("Second CreateBatch failed: %v", err)
	}
	if got := stockOf(t, env, "Sona Masoori", core.GradePremium); got != 140 {
		t.Errorf("Expected 140 Premium bags after second batch, got %d", got)
	}

	batches, err := env.milling.ListBatches(env.ctx)
	if err != nil {
		t.Fatalf("ListBatches failed: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("Expected 2 batches, got %d", len(batches))
	}

	movements := countRows(t, env, "SELECT COUNT(*) FROM inventory_movements WHERE movement_type = 'MILLING_CREDIT'")
	if movements != 3 {
		t.Errorf("Expected 3 credit movements, got %d", movements)
	}
	if n := countRows(t, env, "SELECT COUNT(*) FROM outbox_events WHERE event_type = $1", core.EventMillingBatchRecorded); n != 2 {
		t.Errorf("Expected 2 milling events, got %d", n)
	}
}

func TestMilling_RejectsNonPositiveInput(t *testing.T) {
	env := setupEnv(t)

	_, err := env.milling.CreateBatch(env.ctx, core.MillingInput{
		PaddyType: "IR64", InputPaddyQty: d("0"), OutputRiceQty: d("1"), BrokenRiceQty: d("0"), HuskQty: d("0"),
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}

	if n := countRows(t, env, "SELECT COUNT(*) FROM milling_batches"); n != 0 {
		t.Errorf("Expected no batches, got %d", n)
	}
	if n := countRows(t, env, "SELECT COUNT(*) FROM inventory_items"); n != 0 {
		t.Errorf("Expected no inventory changes, got %d items", n)
	}
}

func TestMilling_NegativeLossIsWarning(t *testing.T) {
	env := setupEnv(t)

	batch, err := env.milling.CreateBatch(env.ctx, core.MillingInput{
		PaddyType: "IR64", InputPaddyQty: d("5"), OutputRiceQty: d("4"), BrokenRiceQty: d("1"), HuskQty: d("1"),
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if !batch.LossPercentage.IsNegative() {
		t.Errorf("Expected negative loss, got %s", batch.LossPercentage)
	}
	if len(batch.Warnings) == 0 {
		t.Errorf("Expected a warning for outputs exceeding input")
	}
}
