package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSummarizeRequests_ApprovedOnlyCountTowardsTotal(t *testing.T) {
	requester := &User{FullName: "Anna Petrova"}
	requests := []*StimulusRequest{
		{Amount: dec("200"), Status: RequestStatusRejected, RequestedBy: requester, Justification: "overtime"},
		{Amount: dec("500"), Status: RequestStatusApproved, RequestedBy: requester, Justification: "project bonus"},
		{Amount: dec("1000"), Status: RequestStatusApproved, RequestedBy: requester, Justification: "grant work"},
	}

	total, summary := summarizeRequests(requests)
	if !total.Equal(dec("1500")) {
		t.Errorf("expected total 1500, got %s", total)
	}

	lines := strings.Split(summary, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 changelog lines, got %d", len(lines))
	}
	if lines[0] != "1. 200,00 ₽ — Rejected (Anna Petrova) — overtime" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[2] != "3. 1000,00 ₽ — Approved (Anna Petrova) — grant work" {
		t.Errorf("unexpected last line: %q", lines[2])
	}
}

func TestSummarizeRequests_ArchivedKeepsFrozenLabel(t *testing.T) {
	requester := &User{Username: "ivanov"}
	requests := []*StimulusRequest{
		{
			Amount:      dec("750"),
			Status:      RequestStatusArchived,
			FinalStatus: "Approved (Archive)",
			RequestedBy: requester,
		},
	}

	total, summary := summarizeRequests(requests)
	if !total.IsZero() {
		t.Errorf("archived requests must not count towards the total, got %s", total)
	}
	if !strings.Contains(summary, "Approved (Archive)") {
		t.Errorf("summary must show the frozen label, got %q", summary)
	}
	if !strings.Contains(summary, "(ivanov)") {
		t.Errorf("summary must fall back to the username, got %q", summary)
	}
}

func TestSummarizeRequests_EmptyJustificationPlaceholder(t *testing.T) {
	requests := []*StimulusRequest{
		{Amount: dec("100"), Status: RequestStatusPending, Justification: "   "},
	}
	_, summary := summarizeRequests(requests)
	if !strings.HasSuffix(summary, "— —") {
		t.Errorf("blank justification must render as a dash, got %q", summary)
	}
}

func TestEmployeeSalaryComputations(t *testing.T) {
	employee := &Employee{
		Rate:            dec("0.5"),
		AllowanceAmount: dec("3000"),
		Payment:         dec("1500"),
		Position:        &Position{BaseSalary: dec("40000")},
		Assignments: []*InternalAssignment{
			{Rate: dec("0.25"), AllowanceAmount: dec("1000"), Position: &Position{BaseSalary: dec("20000")}},
		},
	}

	if !employee.SalaryAmount().Equal(dec("20000")) {
		t.Errorf("salary: expected 20000, got %s", employee.SalaryAmount())
	}
	if !employee.AssignmentsSalaryAmount().Equal(dec("5000")) {
		t.Errorf("assignments salary: expected 5000, got %s", employee.AssignmentsSalaryAmount())
	}
	if !employee.TotalSalaryAmount().Equal(dec("25000")) {
		t.Errorf("total salary: expected 25000, got %s", employee.TotalSalaryAmount())
	}
	if !employee.AllowanceTotal().Equal(dec("4000")) {
		t.Errorf("allowance total: expected 4000, got %s", employee.AllowanceTotal())
	}
	if !employee.TotalPayments().Equal(dec("30500")) {
		t.Errorf("total payments: expected 30500, got %s", employee.TotalPayments())
	}
}

func TestEmployeeSalary_MissingPreloadsAreZero(t *testing.T) {
	employee := &Employee{Rate: decimal.NewFromInt(1)}
	if !employee.SalaryAmount().IsZero() {
		t.Error("salary without a preloaded position must be zero")
	}
	if !employee.AssignmentsSalaryAmount().IsZero() {
		t.Error("assignments salary without preloads must be zero")
	}
}

func TestDisplayStatus(t *testing.T) {
	live := &StimulusRequest{Status: RequestStatusPending}
	if live.DisplayStatus() != "Pending review" {
		t.Errorf("unexpected live label %q", live.DisplayStatus())
	}
	frozen := &StimulusRequest{Status: RequestStatusArchived, FinalStatus: "Rejected (Archive)"}
	if frozen.DisplayStatus() != "Rejected (Archive)" {
		t.Errorf("unexpected frozen label %q", frozen.DisplayStatus())
	}
}

func TestDefaultRate(t *testing.T) {
	if got := defaultRate(decimal.Zero); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("an omitted rate must default to 1, got %s", got)
	}
	if got := defaultRate(dec("0.5")); !got.Equal(dec("0.5")) {
		t.Errorf("a set rate must pass through, got %s", got)
	}
}
