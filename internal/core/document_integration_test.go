package core_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"rice-mill/internal/core"
)

func TestDocumentService_GaplessPerYear(t *testing.T) {
	env := setupEnv(t)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		num, err := env.docs.NextNumber(env.ctx, core.PrefixInvoice, day)
		if err != nil {
			t.Fatalf("NextNumber failed: %v", err)
		}
		if want := fmt.Sprintf("INV-2026-%05d", i); num != want {
			t.Errorf("Expected %s, got %s", want, num)
		}
	}

	// A new year and a different prefix each start their own sequence.
	num, err := env.docs.NextNumber(env.ctx, core.PrefixInvoice, day.AddDate(1, 0, 0))
	if err != nil || num != "INV-2027-00001" {
		t.Errorf("Expected INV-2027-00001, got %s (%v)", num, err)
	}
	num, err = env.docs.NextNumber(env.ctx, core.PrefixPayment, day)
	if err != nil || num != "PAY-2026-00001" {
		t.Errorf("Expected PAY-2026-00001, got %s (%v)", num, err)
	}
}

func TestDocumentService_ConcurrentNumbersAreUnique(t *testing.T) {
	env := setupEnv(t)
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := env.docs.NextNumber(env.ctx, core.PrefixBatch, day)
			if err != nil {
				t.Errorf("NextNumber failed: %v", err)
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for num := range results {
		if seen[num] {
			t.Errorf("Duplicate number %s", num)
		}
		seen[num] = true
	}
	if len(seen) != workers {
		t.Errorf("Expected %d numbers, got %d", workers, len(seen))
	}
}

func TestOutboxService_PendingAndMarks(t *testing.T) {
	env := setupEnv(t)
	if _, err := env.expenses.CreateExpense(env.ctx, core.ExpenseInput{Category: core.ExpenseFuel, Amount: d("900")}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if _, err := env.expenses.CreateExpense(env.ctx, core.ExpenseInput{Category: core.ExpenseRent, Amount: d("15000")}); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	events, err := env.outbox.Pending(env.ctx, 10)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(events) != 2 || events[0].EventType != core.EventExpenseRecorded || events[0].ID > events[1].ID {
		t.Fatalf("Unexpected pending events: %+v", events)
	}

	if err := env.outbox.MarkPublished(env.ctx, events[0].ID); err != nil {
		t.Fatalf("MarkPublished failed: %v", err)
	}
	// Failed and scheduled in the future: not due yet.
	if err := env.outbox.MarkFailed(env.ctx, events[1].ID, 1, time.Now().Add(time.Hour), false, "broker down"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	events, err = env.outbox.Pending(env.ctx, 10)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected nothing due, got %+v", events)
	}
}
