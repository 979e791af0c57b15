package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewRecurringPeriodValidate(t *testing.T) {
	start := date(2026, time.September, 1)

	valid := NewRecurringPeriod{Name: "September", StartDate: start, EndDate: start.AddDate(0, 0, 29)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid period rejected: %v", err)
	}

	sameDay := NewRecurringPeriod{Name: "One day", StartDate: start, EndDate: start}
	if err := sameDay.Validate(); err != nil {
		t.Fatalf("single-day period rejected: %v", err)
	}

	inverted := NewRecurringPeriod{Name: "Backwards", StartDate: start, EndDate: start.AddDate(0, 0, -1)}
	if err := inverted.Validate(); err == nil {
		t.Fatal("end date before start date must be rejected")
	}

	negative := NewRecurringPeriod{
		Name:        "Negative cap",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 10),
		BudgetLimit: decimal.NewFromInt(-1),
	}
	if err := negative.Validate(); err == nil {
		t.Fatal("negative budget limit must be rejected")
	}
}

func TestRecurringPeriodTotals(t *testing.T) {
	period := RecurringPeriod{BudgetLimit: dec("10000")}
	payments := []*RecurringPayment{
		{Amount: dec("2500.50")},
		{Amount: dec("1500")},
		{Amount: dec("0")},
	}

	if got := period.TotalPayments(payments); !got.Equal(dec("4000.50")) {
		t.Errorf("TotalPayments = %s, want 4000.50", got)
	}
	if got := period.RemainingBudget(payments); !got.Equal(dec("5999.50")) {
		t.Errorf("RemainingBudget = %s, want 5999.50", got)
	}

	uncapped := RecurringPeriod{}
	if got := uncapped.RemainingBudget(payments); !got.IsZero() {
		t.Errorf("a period without a limit must report zero remaining, got %s", got)
	}
}

func TestRecurringPeriodGuards(t *testing.T) {
	cases := []struct {
		status  PeriodStatus
		openOk  bool
		closeOk bool
	}{
		{PeriodStatusDraft, true, false},
		{PeriodStatusOpen, false, true},
		{PeriodStatusClosed, false, false},
	}
	for _, tc := range cases {
		period := RecurringPeriod{Status: tc.status}
		if got := period.canOpen() == nil; got != tc.openOk {
			t.Errorf("canOpen from %s = %v, want %v", tc.status, got, tc.openOk)
		}
		if got := period.canClose() == nil; got != tc.closeOk {
			t.Errorf("canClose from %s = %v, want %v", tc.status, got, tc.closeOk)
		}
	}
}
