// restore-seed wipes the mill's transactional tables and loads a small demo data set
// through the application service, so every record passes the same validation and
// numbering as live traffic.
//
// Usage: go run ./cmd/restore-seed --yes
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"rice-mill/internal/app"
	"rice-mill/internal/cache"
	"rice-mill/internal/config"
	"rice-mill/internal/db"
)

func main() {
	confirm := flag.Bool("yes", false, "confirm that all existing mill data may be deleted")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel, "text")

	if !*confirm {
		logger.Fatal("refusing to wipe data without --yes")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	logger.Info("Clearing mill data...")
	if err := truncate(ctx, pool); err != nil {
		pool.Close()
		logger.Fatalf("Failed to clear data: %v", err)
	}

	svc := app.NewAppService(app.NewServices(pool, cfg), cache.New(nil, "", 0), logger)
	if err := seed(ctx, svc, cfg, logger, time.Now()); err != nil {
		pool.Close()
		logger.Fatalf("Seed failed: %v", err)
	}

	report, err := svc.CheckIntegrity(ctx)
	if err != nil {
		pool.Close()
		logger.Fatalf("Integrity check failed to run: %v", err)
	}
	if !report.OK() {
		pool.Close()
		logger.Fatalf("Seeded data has %d integrity violations", len(report.Violations))
	}
	logger.Info("Seed restored.")
}

func truncate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		TRUNCATE payments, sales, procurements, expenses, milling_batches,
			inventory_movements, inventory_items, document_sequences, outbox_events
		RESTART IDENTITY CASCADE`)
	return err
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seed loads two months of procurement, milling, sales, payments and expenses ending at today.
func seed(ctx context.Context, svc app.ApplicationService, cfg *config.Config, logger logrus.FieldLogger, today time.Time) error {
	day := func(daysAgo int) string { return today.AddDate(0, 0, -daysAgo).Format("2006-01-02") }

	procurements := []app.ProcurementRequest{
		{SupplierName: "Ramesh Farms", PaddyType: "IR20", MoisturePercentage: d("14.5"), Quantity: d("25"), RatePerQuintal: d("2100"), PurchaseDate: day(55)},
		{SupplierName: "Kaveri Growers", PaddyType: "Sona Masuri", MoisturePercentage: d("13"), Quantity: d("18"), RatePerQuintal: d("2450"), PurchaseDate: day(40)},
		{SupplierName: "Ramesh Farms", PaddyType: "IR20", MoisturePercentage: d("15"), Quantity: d("12"), RatePerQuintal: d("2150"), PurchaseDate: day(12)},
	}
	var procIDs []int64
	for _, p := range procurements {
		rec, err := svc.CreateProcurement(ctx, p)
		if err != nil {
			return fmt.Errorf("procurement %s: %w", p.SupplierName, err)
		}
		procIDs = append(procIDs, rec.ID)
	}
	logger.Infof("Created %d procurements", len(procIDs))

	batches := []app.MillingRequest{
		{PaddyType: "IR20", InputPaddyQty: d("10"), OutputRiceQty: d("6"), BrokenRiceQty: d("0.8"), HuskQty: d("2.6"), MillingDate: day(50)},
		{PaddyType: "Sona Masuri", InputPaddyQty: d("12"), OutputRiceQty: d("7.5"), BrokenRiceQty: d("0.9"), HuskQty: d("3"), MillingDate: day(35)},
		{PaddyType: "IR20", InputPaddyQty: d("8"), OutputRiceQty: d("5"), BrokenRiceQty: d("0.5"), HuskQty: d("2.1"), MillingDate: day(10)},
	}
	for _, b := range batches {
		batch, err := svc.RecordMilling(ctx, b)
		if err != nil {
			return fmt.Errorf("milling %s: %w", b.PaddyType, err)
		}
		logger.Infof("Milled %s: %d premium / %d broken bags", batch.BatchID, batch.PremiumBagsCredited, batch.BrokenBagsCredited)
	}

	bag := cfg.Units.BagSizeKg
	sales := []app.SaleRequest{
		{CustomerName: "Sri Lakshmi Traders", RiceVariety: "IR20", Grade: "Premium", BagSize: bag, QuantityBags: 60, RatePerBag: d("1450"), TransportCharge: d("800"), PaymentStatus: "Paid", PaymentMode: "Bank", SaleDate: day(45)},
		{CustomerName: "Annapurna Stores", RiceVariety: "Sona Masuri", Grade: "Premium", BagSize: bag, QuantityBags: 40, RatePerBag: d("1800"), GSTAmount: d("3600"), PaymentStatus: "Partial", PaidAmount: d("30000"), SaleDate: day(30)},
		{CustomerName: "Hotel Udupi", RiceVariety: "IR20", Grade: "Broken", BagSize: bag, QuantityBags: 10, RatePerBag: d("900"), SaleDate: day(8)},
	}
	for _, s := range sales {
		inv, err := svc.CreateSale(ctx, s)
		if err != nil {
			return fmt.Errorf("sale to %s: %w", s.CustomerName, err)
		}
		logger.Infof("Invoiced %s: %s (%s)", inv.InvoiceNumber, inv.TotalAmount.StringFixed(2), inv.PaymentStatus)
	}

	payments := []app.PaymentRequest{
		{RefType: "Procurement", RefID: procIDs[0], Amount: d("52500"), PaymentMode: "Bank", PaymentDate: day(50)},
		{RefType: "Procurement", RefID: procIDs[1], Amount: d("20000"), PaymentMode: "Cash", PaymentDate: day(38), Notes: "advance"},
	}
	for _, p := range payments {
		if _, err := svc.RecordPayment(ctx, p); err != nil {
			return fmt.Errorf("payment on %s#%d: %w", p.RefType, p.RefID, err)
		}
	}

	expenses := []app.ExpenseRequest{
		{Category: "Electricity", Amount: d("18500"), PaymentMode: "Bank", Description: "Mill power bill", ExpenseDate: day(45)},
		{Category: "Labour", Amount: d("32000"), Description: "Loading crew wages", ExpenseDate: day(30)},
		{Category: "Packaging", Amount: d("6400"), Description: "50 kg PP bags", ExpenseDate: day(20)},
		{Category: "Fuel", Amount: d("4200"), Description: "Dryer diesel", ExpenseDate: day(5)},
	}
	for _, e := range expenses {
		if _, err := svc.CreateExpense(ctx, e); err != nil {
			return fmt.Errorf("expense %s: %w", e.Category, err)
		}
	}
	logger.Infof("Recorded %d payments and %d expenses", len(payments), len(expenses))
	return nil
}
