package models

import (
	"errors"
	"testing"
)

var errTest = errors.New("boom")

func TestParseEmployeeRow(t *testing.T) {
	row := []string{"Ivanov Ivan", "Physics", "Professor", "PPS", "0,5", "2000", "lab duty"}
	parsed, err := parseEmployeeRow(row)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.FullName != "Ivanov Ivan" || parsed.DivisionName != "Physics" {
		t.Errorf("unexpected identity fields: %+v", parsed)
	}
	if parsed.Category != EmployeeCategoryAcademic {
		t.Errorf("expected academic category, got %s", parsed.Category)
	}
	if !parsed.Rate.Equal(dec("0.5")) {
		t.Errorf("comma decimal separator must parse, got %s", parsed.Rate)
	}
	if !parsed.AllowanceAmount.Equal(dec("2000")) || parsed.AllowanceReason != "lab duty" {
		t.Errorf("unexpected allowance fields: %+v", parsed)
	}
}

func TestParseEmployeeRow_DefaultsAndErrors(t *testing.T) {
	// Missing rate defaults to 1; missing category maps to Other.
	parsed, err := parseEmployeeRow([]string{"Petrov", "Math", "Lecturer", "", "", ""})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Rate.Equal(dec("1")) {
		t.Errorf("missing rate must default to 1, got %s", parsed.Rate)
	}
	if parsed.Category != EmployeeCategoryOther {
		t.Errorf("missing category must default to Other, got %s", parsed.Category)
	}

	cases := [][]string{
		{"", "Math", "Lecturer"},
		{"Petrov", "", "Lecturer"},
		{"Petrov", "Math", ""},
		{"Petrov", "Math", "Lecturer", "Wizard"},
		{"Petrov", "Math", "Lecturer", "PPS", "abc"},
		{"Petrov", "Math", "Lecturer", "PPS", "-1"},
	}
	for index, row := range cases {
		if _, err := parseEmployeeRow(row); err == nil {
			t.Errorf("case %d: expected an error for row %v", index, row)
		}
	}
}

func TestParseCategoryLabel(t *testing.T) {
	cases := map[string]EmployeeCategory{
		"AUP":                  EmployeeCategoryAdministrative,
		"administrative staff": EmployeeCategoryAdministrative,
		"pps":                  EmployeeCategoryAcademic,
		"Academic Staff":       EmployeeCategoryAcademic,
		"Other":                EmployeeCategoryOther,
		"":                     EmployeeCategoryOther,
	}
	for input, expected := range cases {
		if got := parseCategoryLabel(input); got != expected {
			t.Errorf("parseCategoryLabel(%q) = %s, expected %s", input, got, expected)
		}
	}
}

func TestImportResult_ErrorCap(t *testing.T) {
	result := &ImportResult{}
	for row := 0; row < 25; row++ {
		result.addError(row+2, errTest)
	}
	if result.Skipped != 25 {
		t.Errorf("skipped counter must stay exact, got %d", result.Skipped)
	}
	if len(result.Errors) != maxImportErrors {
		t.Errorf("displayed errors must cap at %d, got %d", maxImportErrors, len(result.Errors))
	}
}
