package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

// StatusFor derives the settlement status of a document from its amounts.
func StatusFor(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartial
	default:
		return PaymentPending
	}
}

type PaymentMode string

const (
	PaymentModeCash PaymentMode = "Cash"
	PaymentModeBank PaymentMode = "Bank"
)

func (m PaymentMode) Valid() bool {
	return m == PaymentModeCash || m == PaymentModeBank
}

// RefType names the kind of document a payment settles.
type RefType string

const (
	RefSales       RefType = "Sales"
	RefProcurement RefType = "Procurement"
	RefExpense     RefType = "Expense"
)

func (t RefType) Valid() bool {
	switch t {
	case RefSales, RefProcurement, RefExpense:
		return true
	}
	return false
}

// Grade is the quality class of finished rice.
type Grade string

const (
	GradePremium Grade = "Premium"
	GradeBroken  Grade = "Broken"
)

type ExpenseCategory string

const (
	ExpenseLabour      ExpenseCategory = "Labour"
	ExpenseElectricity ExpenseCategory = "Electricity"
	ExpenseFuel        ExpenseCategory = "Fuel"
	ExpenseTransport   ExpenseCategory = "Transport"
	ExpenseMaintenance ExpenseCategory = "Maintenance"
	ExpensePackaging   ExpenseCategory = "Packaging"
	ExpenseRent        ExpenseCategory = "Rent"
	ExpenseSalary      ExpenseCategory = "Salary"
	ExpenseOther       ExpenseCategory = "Other"
)

var expenseCategories = []ExpenseCategory{
	ExpenseLabour, ExpenseElectricity, ExpenseFuel, ExpenseTransport,
	ExpenseMaintenance, ExpensePackaging, ExpenseRent, ExpenseSalary, ExpenseOther,
}

// ExpenseCategories returns the accepted expense categories in display order.
func ExpenseCategories() []ExpenseCategory {
	out := make([]ExpenseCategory, len(expenseCategories))
	copy(out, expenseCategories)
	return out
}

func (c ExpenseCategory) Valid() bool {
	for _, v := range expenseCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ── Units ─────────────────────────────────────────────────────────────────────

const DefaultBagSizeKg = 50

// Units holds the tonnage/bag conversions used by milling and reporting.
type Units struct {
	BagSizeKg  int
	BagsPerTon decimal.Decimal // milling: tons of output -> bags credited
	TonsPerBag decimal.Decimal // reporting: bags sold -> tons of finished stock

	// set while BagsPerTon is 1000/BagSizeKg; milling then divides by the bag
	// size, since the stored ratio is truncated when the size does not divide 1000.
	bagsFromSize bool
}

var kgPerTon = decimal.NewFromInt(1000)

// UnitsForBagSize derives both conversions from a bag size in kilograms.
func UnitsForBagSize(bagSizeKg int) Units {
	kg := decimal.NewFromInt(int64(bagSizeKg))
	return Units{
		BagSizeKg:    bagSizeKg,
		BagsPerTon:   kgPerTon.Div(kg),
		TonsPerBag:   kg.Div(kgPerTon),
		bagsFromSize: true,
	}
}

// WithBagsPerTon overrides the milling conversion with an explicit ratio.
func (u Units) WithBagsPerTon(bagsPerTon decimal.Decimal) Units {
	u.BagsPerTon = bagsPerTon
	u.bagsFromSize = false
	return u
}

// DefaultUnits is 50 kg bags: 20 bags per ton, 0.05 tons per bag.
func DefaultUnits() Units {
	return UnitsForBagSize(DefaultBagSizeKg)
}

func (u Units) validate() error {
	if u.BagSizeKg <= 0 || !u.BagsPerTon.IsPositive() || !u.TonsPerBag.IsPositive() {
		return fmt.Errorf("invalid unit configuration: bag size %d kg, %s bags/ton, %s tons/bag",
			u.BagSizeKg, u.BagsPerTon, u.TonsPerBag)
	}
	return nil
}

// Stored scales: money has two decimal places, tonnage three.
func money(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
func tons(d decimal.Decimal) decimal.Decimal { return d.Round(3) }

// normalizeName trims a free-text label; rice varieties and paddy types are not normalised further.
func normalizeName(s string) string {
	return strings.TrimSpace(s)
}
