package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/xuri/excelize/v2"
)

const maxImportErrors = 10

// ImportResult aggregates an Excel import run. Errors holds at most
// maxImportErrors messages; the counters are always exact.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

func (r *ImportResult) addError(rowNumber int, err error) {
	r.Skipped++
	if len(r.Errors) < maxImportErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("row %d: %s", rowNumber, err.Error()))
	}
}

// Expected columns: full name, division, position, category, rate,
// allowance amount, allowance reason. The first row is a header.
func parseEmployeeRow(row []string) (*employeeImportRow, error) {
	cell := func(index int) string {
		if index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	fullName := cell(0)
	if fullName == "" {
		return nil, errors.New("full name is empty")
	}
	divisionName := cell(1)
	if divisionName == "" {
		return nil, errors.New("division is empty")
	}
	positionName := cell(2)
	if positionName == "" {
		return nil, errors.New("position is empty")
	}

	category := parseCategoryLabel(cell(3))
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown category %q", cell(3))
	}

	rate := decimal.NewFromInt(1)
	if value := cell(4); value != "" {
		parsed, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "."))
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q", value)
		}
		rate = parsed
	}
	if rate.IsNegative() {
		return nil, errors.New("rate cannot be negative")
	}

	allowance := decimal.Zero
	if value := cell(5); value != "" {
		parsed, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "."))
		if err != nil {
			return nil, fmt.Errorf("invalid allowance %q", value)
		}
		allowance = parsed
	}
	if allowance.IsNegative() {
		return nil, errors.New("allowance cannot be negative")
	}

	return &employeeImportRow{
		FullName:        fullName,
		DivisionName:    divisionName,
		PositionName:    positionName,
		Category:        category,
		Rate:            rate,
		AllowanceAmount: allowance,
		AllowanceReason: cell(6),
	}, nil
}

type employeeImportRow struct {
	FullName        string
	DivisionName    string
	PositionName    string
	Category        EmployeeCategory
	Rate            decimal.Decimal
	AllowanceAmount decimal.Decimal
	AllowanceReason string
}

// parseCategoryLabel accepts both the stored code and the display label.
func parseCategoryLabel(value string) EmployeeCategory {
	switch strings.ToLower(value) {
	case "aup", "administrative staff", "administrative":
		return EmployeeCategoryAdministrative
	case "pps", "academic staff", "academic":
		return EmployeeCategoryAcademic
	case "other", "":
		return EmployeeCategoryOther
	}
	return EmployeeCategory(value)
}

// ImportEmployeesFromExcel reads the first sheet and upserts employees by
// full name. Divisions and positions are created on demand. A failing row
// is skipped and reported; the import continues.
func ImportEmployeesFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, errors.New("cannot read the workbook")
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("the workbook has no sheets")
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	db := config.GetDB()

	for index, row := range rows {
		if index == 0 {
			continue
		}
		rowNumber := index + 1

		parsed, err := parseEmployeeRow(row)
		if err != nil {
			result.addError(rowNumber, err)
			continue
		}

		division, err := ensureDivision(ctx, parsed.DivisionName)
		if err != nil {
			result.addError(rowNumber, err)
			continue
		}
		position, err := ensurePosition(ctx, parsed.PositionName)
		if err != nil {
			result.addError(rowNumber, err)
			continue
		}

		var existing Employee
		err = db.WithContext(ctx).Where("full_name = ?", parsed.FullName).First(&existing).Error
		if err == nil {
			updateErr := db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
				"division_id":      division.ID,
				"position_id":      position.ID,
				"category":         parsed.Category,
				"rate":             parsed.Rate,
				"allowance_amount": parsed.AllowanceAmount,
				"allowance_reason": parsed.AllowanceReason,
			}).Error
			if updateErr != nil {
				result.addError(rowNumber, updateErr)
				continue
			}
			result.Updated++
			continue
		}

		employee := Employee{
			FullName:        parsed.FullName,
			DivisionId:      division.ID,
			PositionId:      position.ID,
			Category:        parsed.Category,
			Rate:            parsed.Rate,
			AllowanceAmount: parsed.AllowanceAmount,
			AllowanceReason: parsed.AllowanceReason,
		}
		if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
			result.addError(rowNumber, err)
			continue
		}
		result.Created++
	}

	return result, nil
}

func ensureDivision(ctx context.Context, name string) (*Division, error) {
	db := config.GetDB()
	var division Division
	if err := db.WithContext(ctx).Where("name = ?", name).First(&division).Error; err == nil {
		return &division, nil
	}
	division = Division{Name: name}
	if err := db.WithContext(ctx).Create(&division).Error; err != nil {
		return nil, err
	}
	return &division, nil
}

func ensurePosition(ctx context.Context, name string) (*Position, error) {
	db := config.GetDB()
	var position Position
	if err := db.WithContext(ctx).Where("name = ?", name).First(&position).Error; err == nil {
		return &position, nil
	}
	position = Position{Name: name}
	if err := db.WithContext(ctx).Create(&position).Error; err != nil {
		return nil, err
	}
	return &position, nil
}
