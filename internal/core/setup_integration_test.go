package core_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"rice-mill/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const testGodown = "Main Godown"

// testEnv bundles the services under test around one pool.
type testEnv struct {
	pool        *pgxpool.Pool
	ctx         context.Context
	docs        core.DocumentService
	inventory   core.InventoryService
	milling     core.MillingService
	payments    core.PaymentService
	sales       core.SalesService
	procurement core.ProcurementService
	expenses    core.ExpenseService
	reporting   core.ReportingService
	integrity   core.IntegrityService
	outbox      core.OutboxService
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	// Migrations are written with IF NOT EXISTS, so re-applying them is safe.
	files, err := filepath.Glob("../../migrations/*.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("Failed to find migrations: %v", err)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("Failed to read migration %s: %v", f, err)
		}
		if _, err := pool.Exec(ctx, string(sqlBytes)); err != nil {
			t.Fatalf("Failed to apply migration %s: %v", f, err)
		}
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE payments, sales, procurements, expenses, milling_batches,
		               inventory_movements, inventory_items, document_sequences, outbox_events
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to reset test database: %v", err)
	}
	return pool
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	pool := setupTestDB(t)
	units := core.DefaultUnits()

	docs := core.NewDocumentService(pool)
	inventory := core.NewInventoryService(pool, testGodown)
	payments := core.NewPaymentService(pool, docs)
	return &testEnv{
		pool:        pool,
		ctx:         context.Background(),
		docs:        docs,
		inventory:   inventory,
		milling:     core.NewMillingService(pool, inventory, docs, units, testGodown),
		payments:    payments,
		sales:       core.NewSalesService(pool, inventory, payments, docs),
		procurement: core.NewProcurementService(pool),
		expenses:    core.NewExpenseService(pool),
		reporting:   core.NewReportingService(pool, units),
		integrity:   core.NewIntegrityService(pool),
		outbox:      core.NewOutboxService(pool),
	}
}

// seedStock inserts an inventory item with the given bag count and returns its id.
func seedStock(t *testing.T, env *testEnv, variety string, grade core.Grade, bags int64) int64 {
	t.Helper()
	var id int64
	err := env.pool.QueryRow(env.ctx, `
		INSERT INTO inventory_items (rice_variety, grade, bag_size_kg, godown_location, quantity)
		VALUES ($1, $2, 50, $3, $4)
		RETURNING id
	`, variety, string(grade), testGodown, bags).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed stock: %v", err)
	}
	return id
}

func stockOf(t *testing.T, env *testEnv, variety string, grade core.Grade) int64 {
	t.Helper()
	var qty int64
	err := env.pool.QueryRow(env.ctx, `
		SELECT quantity FROM inventory_items
		WHERE rice_variety = $1 AND grade = $2 AND bag_size_kg = 50 AND godown_location = $3
	`, variety, string(grade), testGodown).Scan(&qty)
	if err != nil {
		t.Fatalf("Failed to read stock for %s %s: %v", variety, grade, err)
	}
	return qty
}

func countRows(t *testing.T, env *testEnv, query string, args ...any) int {
	t.Helper()
	var n int
	if err := env.pool.QueryRow(env.ctx, query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func pendingSale(variety string, bags int64, rate string) core.SaleInput {
	return core.SaleInput{
		CustomerName: "Lakshmi Traders",
		RiceVariety:  variety,
		Grade:        core.GradePremium,
		BagSizeKg:    50,
		QuantityBags: bags,
		RatePerBag:   d(rate),
	}
}
