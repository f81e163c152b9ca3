package core_test

import (
	"errors"
	"sync"
	"testing"

	"rice-mill/internal/core"

	"github.com/shopspring/decimal"
)

func TestPayments_SettleSaleInInstalments(t *testing.T) {
	env := setupEnv(t)
	seedStock(t, env, "Sona Masoori", core.GradePremium, 10)

	inv, err := env.sales.CreateSale(env.ctx, pendingSale("Sona Masoori", 5, "1000"))
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	ref := core.PaymentRef{Type: core.RefSales, ID: inv.ID}

	s1, err := env.payments.RecordPayment(env.ctx, core.PaymentInput{Ref: ref, Amount: d("2000")})
	if err != nil {
		t.Fatalf("First payment failed: %v", err)
	}
	if s1.PaymentStatus != core.PaymentPartial || !s1.PaidAmount.Equal(d("2000")) || !s1.Balance.Equal(d("3000")) {
		t.Errorf("Unexpected settlement after first payment: %+v", s1)
	}
	if s1.Payment.PaymentMode != core.PaymentModeCash {
		t.Errorf("Expected default payment mode Cash, got %s", s1.Payment.PaymentMode)
	}

	s2, err := env.payments.RecordPayment(env.ctx, core.PaymentInput{Ref: ref, Amount: d("3000"), PaymentMode: core.PaymentModeBank})
	if err != nil {
		t.Fatalf("Second payment failed: %v", err)
	}
	if s2.PaymentStatus != core.PaymentPaid || !s2.Balance.IsZero() {
		t.Errorf("Unexpected settlement after second payment: %+v", s2)
	}

	sale, err := env.sales.GetSale(env.ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	payments, err := env.payments.ListPayments(env.ctx, &ref)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	if !sum.Equal(sale.PaidAmount) || !sale.PaidAmount.Equal(d("5000")) {
		t.Errorf("Expected payments sum %s to equal paid_amount %s = 5000", sum, sale.PaidAmount)
	}
	if sale.PaymentStatus != core.PaymentPaid {
		t.Errorf("Expected sale Paid, got %s", sale.PaymentStatus)
	}

	// A fully paid sale accepts no further payments.
	if _, err := env.payments.RecordPayment(env.ctx, core.PaymentInput{Ref: ref, Amount: d("1")}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation paying a settled sale, got %v", err)
	}
}

func TestPayments_MissingReferenceLeavesNoPayment(t *testing.T) {
	env := setupEnv(t)

	for _, refType := range []core.RefType{core.RefSales, core.RefProcurement, core.RefExpense} {
		_, err := env.payments.RecordPayment(env.ctx, core.PaymentInput{
			Ref:    core.PaymentRef{Type: refType, ID: 999},
			Amount: d("100"),
		})
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", refType, err)
		}
	}
	if n := countRows(t, env, "SELECT COUNT(*) FROM payments"); n != 0 {
		t.Errorf("Expected no orphan payments, got %d", n)
	}
	if n := countRows(t, env, "SELECT COUNT(*) FROM document_sequences"); n != 0 {
		t.Errorf("Expected no payment numbers consumed, got %d sequences", n)
	}
}

func TestPayments_Validation(t *testing.T) {
	env := setupEnv(t)
	rec, err := env.procurement.CreateProcurement(env.ctx, core.ProcurementInput{
		SupplierName: "Ramesh Farms", PaddyType: "IR64", Quantity: d("10"), RatePerQuintal: d("2000"),
	})
	if err != nil {
		t.Fatalf("CreateProcurement failed: %v", err)
	}
	ref := core.PaymentRef{Type: core.RefProcurement, ID: rec.ID}

	tests := []struct {
		name string
		in   core.PaymentInput
	}{
		{"zero amount", core.PaymentInput{Ref: ref, Amount: d("0")}},
		{"negative amount", core.PaymentInput{Ref: ref, Amount: d("-5")}},
		{"unknown ref type", core.PaymentInput{Ref: core.PaymentRef{Type: "Invoice", ID: rec.ID}, Amount: d("5")}},
		{"bad mode", core.PaymentInput{Ref: ref, Amount: d("5"), PaymentMode: "Card"}},
		{"exceeds balance", core.PaymentInput{Ref: ref, Amount: d("20000.01")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.payments.RecordPayment(env.ctx, tt.in); !errors.Is(err, core.ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
	if n := countRows(t, env, "SELECT COUNT(*) FROM payments"); n != 0 {
		t.Errorf("Expected no payments, got %d", n)
	}
}

func TestPayments_ExpenseTakesNoPayments(t *testing.T) {
	env := setupEnv(t)
	e, err := env.expenses.CreateExpense(env.ctx, core.ExpenseInput{Category: core.ExpenseElectricity, Amount: d("1800")})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	_, err = env.payments.RecordPayment(env.ctx, core.PaymentInput{
		Ref: core.PaymentRef{Type: core.RefExpense, ID: e.ID}, Amount: d("100"),
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
}

func TestPayments_ReceivablesAndPayables(t *testing.T) {
	env := setupEnv(t)
	seedStock(t, env, "Sona Masoori", core.GradePremium, 100)

	open, err := env.sales.CreateSale(env.ctx, pendingSale("Sona Masoori", 10, "1000"))
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	paid := pendingSale("Sona Masoori", 5, "1000")
	paid.PaymentStatus = core.PaymentPaid
	if _, err := env.sales.CreateSale(env.ctx, paid); err != nil {
		t.Fatalf("CreateSale (paid) failed: %v", err)
	}
	rec, err := env.procurement.CreateProcurement(env.ctx, core.ProcurementInput{
		SupplierName: "Ramesh Farms", PaddyType: "IR64", Quantity: d("10"), RatePerQuintal: d("2000"),
	})
	if err != nil {
		t.Fatalf("CreateProcurement failed: %v", err)
	}
	if _, err := env.payments.RecordPayment(env.ctx, core.PaymentInput{
		Ref: core.PaymentRef{Type: core.RefProcurement, ID: rec.ID}, Amount: d("5000"),
	}); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	receivables, err := env.payments.Receivables(env.ctx)
	if err != nil {
		t.Fatalf("Receivables failed: %v", err)
	}
	if len(receivables) != 1 || receivables[0].RefID != open.ID || !receivables[0].Balance.Equal(d("10000")) {
		t.Errorf("Unexpected receivables: %+v", receivables)
	}

	payables, err := env.payments.Payables(env.ctx)
	if err != nil {
		t.Fatalf("Payables failed: %v", err)
	}
	if len(payables) != 1 || !payables[0].Balance.Equal(d("15000")) || payables[0].PaymentStatus != core.PaymentPartial {
		t.Errorf("Unexpected payables: %+v", payables)
	}
}

func TestPayments_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	env := setupEnv(t)
	seedStock(t, env, "Sona Masoori", core.GradePremium, 10)

	inv, err := env.sales.CreateSale(env.ctx, pendingSale("Sona Masoori", 5, "1000"))
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	ref := core.PaymentRef{Type: core.RefSales, ID: inv.ID}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.payments.RecordPayment(env.ctx, core.PaymentInput{Ref: ref, Amount: d("3000")})
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, core.ErrValidation):
			rejected++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("Expected one payment accepted and one rejected as overpayment, got %d/%d", succeeded, rejected)
	}

	sale, err := env.sales.GetSale(env.ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	payments, err := env.payments.ListPayments(env.ctx, &ref)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	if len(payments) != 1 || !sum.Equal(sale.PaidAmount) || !sale.PaidAmount.Equal(d("3000")) {
		t.Errorf("Expected one payment of 3000 matching paid_amount, got %d payments summing %s, paid %s",
			len(payments), sum, sale.PaidAmount)
	}
	if sale.PaidAmount.GreaterThan(sale.TotalAmount) {
		t.Errorf("paid_amount %s exceeds total %s", sale.PaidAmount, sale.TotalAmount)
	}
	if sale.PaymentStatus != core.PaymentPartial {
		t.Errorf("Expected sale Partial, got %s", sale.PaymentStatus)
	}
}
