package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"rice-mill/internal/cache"
	"rice-mill/internal/config"
	"rice-mill/internal/core"
)

// Services groups the core services the application facade orchestrates.
type Services struct {
	Inventory   core.InventoryService
	Milling     core.MillingService
	Sales       core.SalesService
	Procurement core.ProcurementService
	Payments    core.PaymentService
	Expenses    core.ExpenseService
	Reporting   core.ReportingService
	Integrity   core.IntegrityService
}

// NewServices wires every core service against one pool.
func NewServices(pool *pgxpool.Pool, cfg *config.Config) Services {
	docs := core.NewDocumentService(pool)
	inventory := core.NewInventoryService(pool, cfg.DefaultGodown)
	payments := core.NewPaymentService(pool, docs)
	return Services{
		Inventory:   inventory,
		Milling:     core.NewMillingService(pool, inventory, docs, cfg.Units, cfg.DefaultGodown),
		Sales:       core.NewSalesService(pool, inventory, payments, docs),
		Procurement: core.NewProcurementService(pool),
		Payments:    payments,
		Expenses:    core.NewExpenseService(pool),
		Reporting:   core.NewReportingService(pool, cfg.Units),
		Integrity:   core.NewIntegrityService(pool),
	}
}

type appService struct {
	Services
	reports *cache.Cache
	logger  logrus.FieldLogger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// reports may be a disabled cache; reads then always hit the database.
func NewAppService(svcs Services, reports *cache.Cache, logger logrus.FieldLogger) ApplicationService {
	return &appService{Services: svcs, reports: reports, logger: logger}
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) ListInventory(ctx context.Context) (*InventoryListResult, error) {
	items, err := s.Inventory.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return inventoryResult(items), nil
}

func (s *appService) LowStock(ctx context.Context) (*InventoryListResult, error) {
	items, err := s.Inventory.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	return inventoryResult(items), nil
}

func inventoryResult(items []core.InventoryItem) *InventoryListResult {
	res := &InventoryListResult{Items: items}
	for _, it := range items {
		res.TotalBags += it.Quantity
	}
	return res
}

func (s *appService) InventoryMovements(ctx context.Context, itemID int64, limit int) (*MovementListResult, error) {
	if itemID <= 0 {
		return nil, core.NewValidationError("id", "must be greater than 0")
	}
	movements, err := s.Inventory.Movements(ctx, itemID, limit)
	if err != nil {
		return nil, err
	}
	return &MovementListResult{ItemID: itemID, Movements: movements}, nil
}

func (s *appService) AdjustInventory(ctx context.Context, req AdjustInventoryRequest) (*core.InventoryItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	item, err := s.Inventory.Adjust(ctx, req.ID, req.Adjustment, req.Reason)
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, "AdjustInventory")
	return item, nil
}

func (s *appService) SetThreshold(ctx context.Context, req SetThresholdRequest) (*core.InventoryItem, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	item, err := s.Inventory.SetThreshold(ctx, req.ID, req.MinimumThreshold)
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, "SetThreshold")
	return item, nil
}

// ── Milling ───────────────────────────────────────────────────────────────────

func (s *appService) RecordMilling(ctx context.Context, req MillingRequest) (*core.MillingBatch, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("milling_date", req.MillingDate)
	if err != nil {
		return nil, err
	}
	batch, err := s.Milling.CreateBatch(ctx, core.MillingInput{
		PaddyType:      req.PaddyType,
		RiceVariety:    req.RiceVariety,
		InputPaddyQty:  req.InputPaddyQty,
		OutputRiceQty:  req.OutputRiceQty,
		BrokenRiceQty:  req.BrokenRiceQty,
		HuskQty:        req.HuskQty,
		MillingDate:    date,
		GodownLocation: req.GodownLocation,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, "RecordMilling")
	return batch, nil
}

func (s *appService) ListMilling(ctx context.Context) (*BatchListResult, error) {
	batches, err := s.Milling.ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	return &BatchListResult{Batches: batches}, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *appService) CreateSale(ctx context.Context, req SaleRequest) (*core.SaleInvoice, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("sale_date", req.SaleDate)
	if err != nil {
		return nil, err
	}
	sale, err := s.Sales.CreateSale(ctx, core.SaleInput{
		CustomerName:    req.CustomerName,
		RiceVariety:     req.RiceVariety,
		Grade:           core.Grade(req.Grade),
		BagSizeKg:       req.BagSize,
		GodownLocation:  req.GodownLocation,
		QuantityBags:    req.QuantityBags,
		RatePerBag:      req.RatePerBag,
		TransportCharge: req.TransportCharge,
		GSTAmount:       req.GSTAmount,
		PaymentStatus:   core.PaymentStatus(req.PaymentStatus),
		PaidAmount:      req.PaidAmount,
		PaymentMode:     core.PaymentMode(req.PaymentMode),
		SaleDate:        date,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, "CreateSale")
	return sale, nil
}

func (s *appService) ListSales(ctx context.Context) (*SaleListResult, error) {
	sales, err := s.Sales.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

func (s *appService) GetSale(ctx context.Context, id int64) (*core.SaleInvoice, error) {
	if id <= 0 {
		return nil, core.NewValidationError("id", "must be greater than 0")
	}
	return s.Sales.GetSale(ctx, id)
}

// ── Procurement ───────────────────────────────────────────────────────────────

func (s *appService) CreateProcurement(ctx context.Context, req ProcurementRequest) (*core.ProcurementRecord, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("purchase_date", req.PurchaseDate)
	if err != nil {
		return nil, err
	}
	rec, err := s.Procurement.CreateProcurement(ctx, core.ProcurementInput{
		SupplierName:       req.SupplierName,
		PaddyType:          req.PaddyType,
		MoisturePercentage: req.MoisturePercentage,
		Quantity:           req.Quantity,
		RatePerQuintal:     req.RatePerQuintal,
		PurchaseDate:       date,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, "CreateProcurement")
	return rec, nil
}

func (s *appService) ListProcurements(ctx context.Context) (*ProcurementListResult, error) {
	recs, err := s.Procurement.ListProcurements(ctx)
	if err != nil {
		return nil, err
	}
	return &ProcurementListResult{Procurements: recs}, nil
}

// ── Expenses ──────────────────────────────────────────────────────────────────

func (s *appService) CreateExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("expense_date", req.ExpenseDate)
	if err != nil {
		return nil, err
	}
	e, err := s.Expenses.CreateExpense(ctx, core.ExpenseInput{
		Category:    core.ExpenseCategory(req.Category),
		Amount:      req.Amount,
		PaymentMode: core.PaymentMode(req.PaymentMode),
		Description: req.Description,
		ExpenseDate: date,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, "CreateExpense")
	return e, nil
}

func (s *appService) ListExpenses(ctx context.Context) (*ExpenseListResult, error) {
	expenses, err := s.Expenses.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	res := &ExpenseListResult{Expenses: expenses, Total: decimal.Zero}
	for _, e := range expenses {
		res.Total = res.Total.Add(e.Amount)
	}
	return res, nil
}

// ── Payments ──────────────────────────────────────────────────────────────────

func (s *appService) RecordPayment(ctx context.Context, req PaymentRequest) (*core.Settlement, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	date, err := parseDate("payment_date", req.PaymentDate)
	if err != nil {
		return nil, err
	}
	settlement, err := s.Payments.RecordPayment(ctx, core.PaymentInput{
		Ref:         core.PaymentRef{Type: core.RefType(req.RefType), ID: req.RefID},
		Amount:      req.Amount,
		PaymentMode: core.PaymentMode(req.PaymentMode),
		PaymentDate: date,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, "RecordPayment")
	return settlement, nil
}

func (s *appService) ListPayments(ctx context.Context, req PaymentFilter) (*PaymentListResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var ref *core.PaymentRef
	switch {
	case req.RefType != "" && req.RefID > 0:
		ref = &core.PaymentRef{Type: core.RefType(req.RefType), ID: req.RefID}
	case req.RefType != "":
		return nil, core.NewValidationError("ref_id", "is required with ref_type")
	case req.RefID > 0:
		return nil, core.NewValidationError("ref_type", "is required with ref_id")
	}
	payments, err := s.Payments.ListPayments(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Payments: payments}, nil
}

func (s *appService) Receivables(ctx context.Context) (*OutstandingResult, error) {
	docs, err := s.Payments.Receivables(ctx)
	if err != nil {
		return nil, err
	}
	return outstandingResult(docs), nil
}

func (s *appService) Payables(ctx context.Context) (*OutstandingResult, error) {
	docs, err := s.Payments.Payables(ctx)
	if err != nil {
		return nil, err
	}
	return outstandingResult(docs), nil
}

func outstandingResult(docs []core.OutstandingDocument) *OutstandingResult {
	res := &OutstandingResult{Documents: docs, Total: decimal.Zero}
	for _, d := range docs {
		res.Total = res.Total.Add(d.Balance)
	}
	return res
}

// ── Reports (cached) ──────────────────────────────────────────────────────────

func (s *appService) PaymentSummary(ctx context.Context) (*core.PaymentSummary, error) {
	return cachedReport(ctx, s, "payments:summary", s.Reporting.PaymentSummary)
}

func (s *appService) DashboardMetrics(ctx context.Context) (*core.DashboardMetrics, error) {
	return cachedReport(ctx, s, "dashboard", s.Reporting.DashboardMetrics)
}

func (s *appService) ProfitLossSummary(ctx context.Context, from, to string) (*core.ProfitLossSummary, error) {
	period, err := parseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("pl:summary:%s:%s", from, to)
	return cachedReport(ctx, s, key, func(ctx context.Context) (*core.ProfitLossSummary, error) {
		return s.Reporting.ProfitLossSummary(ctx, period)
	})
}

func (s *appService) ProfitLossTrend(ctx context.Context, months int) (*TrendResult, error) {
	if months <= 0 {
		months = core.DefaultTrendMonths
	}
	if months > core.MaxTrendMonths {
		return nil, core.NewValidationError("months", fmt.Sprintf("must be at most %d", core.MaxTrendMonths))
	}
	key := fmt.Sprintf("pl:trend:%d", months)
	points, err := cachedReport(ctx, s, key, func(ctx context.Context) ([]core.TrendPoint, error) {
		return s.Reporting.ProfitLossTrend(ctx, months)
	})
	if err != nil {
		return nil, err
	}
	return &TrendResult{Months: months, Points: points}, nil
}

func (s *appService) CheckIntegrity(ctx context.Context) (*core.IntegrityReport, error) {
	return s.Integrity.Check(ctx)
}

// cachedReport reads key through the report cache. Cache failures are logged and never fail the request.
func cachedReport[T any](ctx context.Context, s *appService, key string, load func(context.Context) (T, error)) (T, error) {
	val, cacheErr, err := cache.GetOrLoad(ctx, s.reports, key, load)
	if cacheErr != nil {
		s.logger.WithError(cacheErr).WithField("key", key).Warn("report cache unavailable")
	}
	return val, err
}

// invalidateReports drops every cached report after a successful write.
func (s *appService) invalidateReports(ctx context.Context, op string) {
	if err := s.reports.InvalidateAll(ctx); err != nil {
		config.LogError(s.logger, "app", op, "report cache invalidation failed", nil, err)
	}
}
