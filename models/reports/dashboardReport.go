package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/models"
	"github.com/stimulico/compensation_backend/utils"
)

const dashboardCacheKey = "report:dashboard"
const dashboardCacheTTL = 5 * time.Minute

// DashboardMetrics is the landing-page summary: headcounts, live request
// counts and the budget totals for the current year.
type DashboardMetrics struct {
	EmployeeCount      int64                      `json:"employee_count"`
	EmployeesByCat     []CategoryCount            `json:"employees_by_category"`
	DivisionPayrolls   []DivisionPayroll          `json:"division_payrolls"`
	PendingRequests    int64                      `json:"pending_requests"`
	ApprovedThisMonth  decimal.Decimal            `json:"approved_this_month"`
	MonthlyApproved    []MonthlyTotal             `json:"monthly_approved"`
	TopEmployees       []EmployeePayment          `json:"top_employees"`
	ActiveCampaigns    []*models.RequestCampaign  `json:"active_campaigns"`
	BudgetTotals       BudgetTotals               `json:"budget_totals"`
	GeneratedAt        time.Time                  `json:"generated_at"`
}

// MonthlyTotal is one point of the approved-amount series, "2026-08" style.
type MonthlyTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type EmployeePayment struct {
	EmployeeId int             `json:"employee_id"`
	FullName   string          `json:"full_name"`
	Payment    decimal.Decimal `json:"payment"`
}

type CategoryCount struct {
	Category models.EmployeeCategory `json:"category"`
	Label    string                  `json:"label"`
	Count    int64                   `json:"count"`
}

type DivisionPayroll struct {
	DivisionId   int             `json:"division_id"`
	DivisionName string          `json:"division_name"`
	Headcount    int64           `json:"headcount"`
	SalaryTotal  decimal.Decimal `json:"salary_total"`
	PaymentTotal decimal.Decimal `json:"payment_total"`
}

type BudgetTotals struct {
	Total    decimal.Decimal `json:"total"`
	Reserved decimal.Decimal `json:"reserved"`
	Spent    decimal.Decimal `json:"spent"`
}

const divisionPayrollSQL = `
SELECT d.id AS division_id,
       d.name AS division_name,
       COUNT(e.id) AS headcount,
       COALESCE(SUM(p.base_salary * e.rate), 0) AS salary_total,
       COALESCE(SUM(e.payment), 0) AS payment_total
FROM divisions d
LEFT JOIN employees e ON e.division_id = d.id
LEFT JOIN positions p ON p.id = e.position_id
{{if .DivisionId}}WHERE d.id = {{.DivisionId}}{{end}}
GROUP BY d.id, d.name
ORDER BY d.name ASC`

// CollectDashboardMetrics builds the dashboard snapshot, served from the
// redis cache when fresh. A scoped caller only sees their division's slice;
// an employee-tier caller only their own rows.
func CollectDashboardMetrics(ctx context.Context, role *models.Role) (*DashboardMetrics, error) {
	// Only callers who see every employee share the cached snapshot. A nil
	// division scope is not the same thing: a plain employee account has no
	// scope record yet must never see the global numbers.
	unscoped := role.CanViewAllEmployees()

	scopedDivision := 0
	if !unscoped && role.IsDepartmentManager() {
		if division := role.DivisionScope(); division != nil {
			scopedDivision = *division
		}
	}

	if unscoped {
		var cached DashboardMetrics
		if found, err := config.GetRedisObject(dashboardCacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	db := config.GetDB()
	metrics := &DashboardMetrics{GeneratedAt: time.Now().UTC()}

	employeeQuery := db.WithContext(ctx).Model(&models.Employee{}).Scopes(models.EmployeesVisibleTo(role))
	if err := employeeQuery.Count(&metrics.EmployeeCount).Error; err != nil {
		return nil, err
	}

	for _, category := range []models.EmployeeCategory{
		models.EmployeeCategoryAdministrative,
		models.EmployeeCategoryAcademic,
		models.EmployeeCategoryOther,
	} {
		var count int64
		err := db.WithContext(ctx).Model(&models.Employee{}).
			Scopes(models.EmployeesVisibleTo(role)).
			Where("category = ?", category).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		metrics.EmployeesByCat = append(metrics.EmployeesByCat, CategoryCount{
			Category: category,
			Label:    category.DisplayLabel(),
			Count:    count,
		})
	}

	// The division payroll slice aggregates other people's salaries, so it is
	// reserved for unscoped callers and division-scoped managers.
	if unscoped || scopedDivision > 0 {
		payrollSQL, err := utils.ExecTemplate(divisionPayrollSQL, map[string]interface{}{
			"DivisionId": scopedDivision,
		})
		if err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Raw(payrollSQL).Scan(&metrics.DivisionPayrolls).Error; err != nil {
			return nil, err
		}
	}

	err := db.WithContext(ctx).Model(&models.StimulusRequest{}).
		Scopes(models.RequestsVisibleTo(role)).
		Where("status = ?", models.RequestStatusPending).
		Count(&metrics.PendingRequests).Error
	if err != nil {
		return nil, err
	}

	monthStart, monthEnd := utils.GetThisMonthRange()
	var approvedRows []struct {
		Total decimal.Decimal
	}
	err = db.WithContext(ctx).Model(&models.StimulusRequest{}).
		Scopes(models.RequestsVisibleTo(role)).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", models.RequestStatusApproved).
		Where("updated_at BETWEEN ? AND ?", monthStart, monthEnd.AddDate(0, 0, 1)).
		Scan(&approvedRows).Error
	if err != nil {
		return nil, err
	}
	if len(approvedRows) > 0 {
		metrics.ApprovedThisMonth = approvedRows[0].Total
	}

	yearAgo := time.Now().UTC().AddDate(-1, 0, 0)
	err = db.WithContext(ctx).Model(&models.StimulusRequest{}).
		Scopes(models.RequestsVisibleTo(role)).
		Select("DATE_FORMAT(updated_at, '%Y-%m') AS month, COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", models.RequestStatusApproved).
		Where("updated_at >= ?", yearAgo).
		Group("month").
		Order("month ASC").
		Scan(&metrics.MonthlyApproved).Error
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(&models.Employee{}).
		Scopes(models.EmployeesVisibleTo(role)).
		Select("employees.id AS employee_id, employees.full_name AS full_name, employees.payment AS payment").
		Where("employees.payment > 0").
		Order("employees.payment DESC").
		Limit(10).
		Scan(&metrics.TopEmployees).Error
	if err != nil {
		return nil, err
	}

	campaigns, err := models.ActiveCampaigns(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	metrics.ActiveCampaigns = campaigns

	var budgetRows []struct {
		Total    decimal.Decimal
		Reserved decimal.Decimal
		Spent    decimal.Decimal
	}
	err = db.WithContext(ctx).Model(&models.Budget{}).
		Select("COALESCE(SUM(total), 0) AS total, COALESCE(SUM(reserved), 0) AS reserved, COALESCE(SUM(spent), 0) AS spent").
		Where("year = ?", time.Now().Year()).
		Scan(&budgetRows).Error
	if err != nil {
		return nil, err
	}
	if len(budgetRows) > 0 {
		metrics.BudgetTotals = BudgetTotals(budgetRows[0])
	}

	if unscoped {
		_ = config.SetRedisObject(dashboardCacheKey, metrics, dashboardCacheTTL)
	}
	return metrics, nil
}

// InvalidateDashboardCache drops the cached snapshot after bulk mutations.
func InvalidateDashboardCache() {
	_ = config.RemoveRedisKey(dashboardCacheKey)
}
