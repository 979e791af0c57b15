package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func ledgerInvariant(t *testing.T, budget *Budget, allocation *BudgetAllocation) {
	t.Helper()
	if budget.Reserved.Add(budget.Spent).GreaterThan(budget.Total) {
		t.Fatalf("budget invariant broken: reserved %s + spent %s > total %s",
			budget.Reserved, budget.Spent, budget.Total)
	}
	if allocation.Reserved.Add(allocation.Spent).GreaterThan(allocation.Allocated) {
		t.Fatalf("allocation invariant broken: reserved %s + spent %s > allocated %s",
			allocation.Reserved, allocation.Spent, allocation.Allocated)
	}
}

func TestReserveSpendRelease(t *testing.T) {
	budget := &Budget{Total: dec("1000")}
	allocation := &BudgetAllocation{Allocated: dec("600")}

	if err := allocation.reserve(budget, dec("400")); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	ledgerInvariant(t, budget, allocation)
	if !budget.Reserved.Equal(dec("400")) || !allocation.Reserved.Equal(dec("400")) {
		t.Fatal("both ledgers must move together on reserve")
	}

	if err := allocation.spend(budget, dec("300")); err != nil {
		t.Fatalf("spend: %v", err)
	}
	ledgerInvariant(t, budget, allocation)
	if !allocation.Spent.Equal(dec("300")) || !allocation.Reserved.Equal(dec("100")) {
		t.Fatalf("spend must convert reservation into spend, got reserved %s spent %s",
			allocation.Reserved, allocation.Spent)
	}

	if err := allocation.release(budget, dec("100")); err != nil {
		t.Fatalf("release: %v", err)
	}
	ledgerInvariant(t, budget, allocation)
	if !allocation.Reserved.IsZero() || !budget.Reserved.IsZero() {
		t.Fatal("release must return the reservation on both ledgers")
	}
}

func TestReserve_FailingGuardMutatesNothing(t *testing.T) {
	budget := &Budget{Total: dec("1000"), Reserved: dec("900")}
	allocation := &BudgetAllocation{Allocated: dec("600"), Reserved: dec("50")}

	// Allocation has room but the budget does not.
	if err := allocation.reserve(budget, dec("200")); err == nil {
		t.Fatal("over-reservation against the budget must fail")
	}
	if !allocation.Reserved.Equal(dec("50")) || !budget.Reserved.Equal(dec("900")) {
		t.Fatal("a failing reserve must leave both ledgers untouched")
	}

	// Budget has room but the allocation does not.
	budget = &Budget{Total: dec("10000")}
	allocation = &BudgetAllocation{Allocated: dec("100")}
	if err := allocation.reserve(budget, dec("101")); err == nil {
		t.Fatal("over-reservation against the allocation must fail")
	}
	if !allocation.Reserved.IsZero() || !budget.Reserved.IsZero() {
		t.Fatal("a failing reserve must leave both ledgers untouched")
	}
}

func TestSpendAndRelease_RequireReservation(t *testing.T) {
	budget := &Budget{Total: dec("1000")}
	allocation := &BudgetAllocation{Allocated: dec("500")}

	if err := allocation.spend(budget, dec("1")); err == nil {
		t.Fatal("spending without a reservation must fail")
	}
	if err := allocation.release(budget, dec("1")); err == nil {
		t.Fatal("releasing without a reservation must fail")
	}
	if !allocation.Spent.IsZero() || !budget.Spent.IsZero() {
		t.Fatal("failing calls must not mutate the ledgers")
	}
}

func TestMutators_RejectNonPositiveAmounts(t *testing.T) {
	budget := &Budget{Total: dec("1000")}
	allocation := &BudgetAllocation{Allocated: dec("500"), Reserved: dec("100")}
	budget.Reserved = dec("100")

	for _, amount := range []decimal.Decimal{decimal.Zero, dec("-5")} {
		if err := allocation.reserve(budget, amount); err == nil {
			t.Errorf("reserve(%s) must fail", amount)
		}
		if err := allocation.release(budget, amount); err == nil {
			t.Errorf("release(%s) must fail", amount)
		}
		if err := allocation.spend(budget, amount); err == nil {
			t.Errorf("spend(%s) must fail", amount)
		}
	}
}

func TestAvailable(t *testing.T) {
	budget := &Budget{Total: dec("1000"), Reserved: dec("300"), Spent: dec("200")}
	if !budget.Available().Equal(dec("500")) {
		t.Errorf("expected 500 available, got %s", budget.Available())
	}
	allocation := &BudgetAllocation{Allocated: dec("400"), Reserved: dec("100"), Spent: dec("50")}
	if !allocation.Available().Equal(dec("250")) {
		t.Errorf("expected 250 available, got %s", allocation.Available())
	}
}
