package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/stimulico/compensation_backend/models"
	"github.com/xuri/excelize/v2"
)

// BuildEmployeesWorkbook renders the visible employees into an XLSX
// workbook, one row per employee with the computed salary columns.
func BuildEmployeesWorkbook(ctx context.Context, role *models.Role, filter models.EmployeeFilter) (*excelize.File, error) {
	filter.Limit = 100000
	employees, _, err := models.ListEmployees(ctx, role, filter)
	if err != nil {
		return nil, err
	}

	workbook := excelize.NewFile()
	sheet := "Employees"
	workbook.SetSheetName(workbook.GetSheetName(0), sheet)

	headers := []string{
		"Full name", "Division", "Position", "Category", "Rate",
		"Salary", "Assignments salary", "Allowance", "Stimulus payment", "Total",
		"Justification",
	}
	for column, header := range headers {
		cell, err := excelize.CoordinatesToCellName(column+1, 1)
		if err != nil {
			return nil, err
		}
		if err := workbook.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIndex, employee := range employees {
		divisionName := ""
		if employee.Division != nil {
			divisionName = employee.Division.Name
		}
		positionName := ""
		if employee.Position != nil {
			positionName = employee.Position.Name
		}
		values := []interface{}{
			employee.FullName,
			divisionName,
			positionName,
			employee.Category.DisplayLabel(),
			employee.Rate.InexactFloat64(),
			employee.SalaryAmount().InexactFloat64(),
			employee.AssignmentsSalaryAmount().InexactFloat64(),
			employee.AllowanceTotal().InexactFloat64(),
			employee.Payment.InexactFloat64(),
			employee.TotalPayments().InexactFloat64(),
			employee.Justification,
		}
		for column, value := range values {
			cell, err := excelize.CoordinatesToCellName(column+1, rowIndex+2)
			if err != nil {
				return nil, err
			}
			if err := workbook.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return workbook, nil
}

// BuildDashboardWorkbook renders the dashboard snapshot: a summary sheet
// and a per-division payroll sheet.
func BuildDashboardWorkbook(ctx context.Context, role *models.Role) (*excelize.File, error) {
	metrics, err := CollectDashboardMetrics(ctx, role)
	if err != nil {
		return nil, err
	}

	workbook := excelize.NewFile()
	summary := "Summary"
	workbook.SetSheetName(workbook.GetSheetName(0), summary)

	summaryRows := [][]interface{}{
		{"Generated at", metrics.GeneratedAt.Format(time.RFC3339)},
		{"Employees", metrics.EmployeeCount},
		{"Pending requests", metrics.PendingRequests},
		{"Approved this month", metrics.ApprovedThisMonth.InexactFloat64()},
		{"Budget total", metrics.BudgetTotals.Total.InexactFloat64()},
		{"Budget reserved", metrics.BudgetTotals.Reserved.InexactFloat64()},
		{"Budget spent", metrics.BudgetTotals.Spent.InexactFloat64()},
	}
	for _, categoryCount := range metrics.EmployeesByCat {
		summaryRows = append(summaryRows, []interface{}{categoryCount.Label, categoryCount.Count})
	}
	for rowIndex, row := range summaryRows {
		for column, value := range row {
			cell, err := excelize.CoordinatesToCellName(column+1, rowIndex+1)
			if err != nil {
				return nil, err
			}
			if err := workbook.SetCellValue(summary, cell, value); err != nil {
				return nil, err
			}
		}
	}

	payroll := "Divisions"
	if _, err := workbook.NewSheet(payroll); err != nil {
		return nil, err
	}
	payrollHeaders := []string{"Division", "Headcount", "Salary total", "Stimulus total"}
	for column, header := range payrollHeaders {
		cell, err := excelize.CoordinatesToCellName(column+1, 1)
		if err != nil {
			return nil, err
		}
		if err := workbook.SetCellValue(payroll, cell, header); err != nil {
			return nil, err
		}
	}
	for rowIndex, division := range metrics.DivisionPayrolls {
		values := []interface{}{
			division.DivisionName,
			division.Headcount,
			division.SalaryTotal.InexactFloat64(),
			division.PaymentTotal.InexactFloat64(),
		}
		for column, value := range values {
			cell, err := excelize.CoordinatesToCellName(column+1, rowIndex+2)
			if err != nil {
				return nil, err
			}
			if err := workbook.SetCellValue(payroll, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return workbook, nil
}

// AttachmentName builds the export filename, e.g. employees-2026-08-29.xlsx.
func AttachmentName(prefix string) string {
	return fmt.Sprintf("%s-%s.xlsx", prefix, time.Now().UTC().Format("2006-01-02"))
}
