package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Employee struct {
	ID              int              `gorm:"primary_key" json:"id"`
	UserId          *int             `gorm:"uniqueIndex" json:"user_id"`
	FullName        string           `gorm:"size:255;not null;index" json:"full_name" binding:"required"`
	DivisionId      int              `gorm:"index;not null" json:"division_id" binding:"required"`
	PositionId      int              `gorm:"index;not null" json:"position_id" binding:"required"`
	Category        EmployeeCategory `gorm:"size:32;not null" json:"category" binding:"required"`
	Rate            decimal.Decimal  `gorm:"type:decimal(6,3);default:1" json:"rate"`
	AllowanceAmount decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"allowance_amount"`
	AllowanceReason string           `gorm:"size:255" json:"allowance_reason"`
	AllowanceUntil  *time.Time       `json:"allowance_until"`

	// Payment and Justification are machine-maintained: only the recompute
	// service writes them, never a form or an API payload.
	Payment       decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"payment"`
	Justification string          `gorm:"type:text" json:"justification"`

	Division    *Division             `gorm:"foreignKey:DivisionId" json:"division,omitempty"`
	Position    *Position             `gorm:"foreignKey:PositionId" json:"position,omitempty"`
	Assignments []*InternalAssignment `gorm:"foreignKey:EmployeeId" json:"assignments,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// InternalAssignment is a secondary position an employee holds in-house.
type InternalAssignment struct {
	ID              int             `gorm:"primary_key" json:"id"`
	EmployeeId      int             `gorm:"index;not null" json:"employee_id" binding:"required"`
	PositionId      int             `gorm:"index;not null" json:"position_id" binding:"required"`
	Rate            decimal.Decimal `gorm:"type:decimal(6,3);default:1" json:"rate"`
	AllowanceAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"allowance_amount"`
	AllowanceReason string          `gorm:"size:255" json:"allowance_reason"`
	AllowanceUntil  *time.Time      `json:"allowance_until"`
	Position        *Position       `gorm:"foreignKey:PositionId" json:"position,omitempty"`
}

// SalaryAmount is base salary at the primary position times the rate.
// Position must be preloaded.
func (e *Employee) SalaryAmount() decimal.Decimal {
	if e.Position == nil {
		return decimal.Zero
	}
	return e.Position.BaseSalary.Mul(e.Rate)
}

// AssignmentsSalaryAmount sums base*rate over preloaded assignments.
func (e *Employee) AssignmentsSalaryAmount() decimal.Decimal {
	total := decimal.Zero
	for _, assignment := range e.Assignments {
		if assignment.Position == nil {
			continue
		}
		total = total.Add(assignment.Position.BaseSalary.Mul(assignment.Rate))
	}
	return total
}

func (e *Employee) TotalSalaryAmount() decimal.Decimal {
	return e.SalaryAmount().Add(e.AssignmentsSalaryAmount())
}

func (e *Employee) AllowanceTotal() decimal.Decimal {
	total := e.AllowanceAmount
	for _, assignment := range e.Assignments {
		total = total.Add(assignment.AllowanceAmount)
	}
	return total
}

func (e *Employee) TotalPayments() decimal.Decimal {
	return e.TotalSalaryAmount().Add(e.AllowanceTotal()).Add(e.Payment)
}

type NewEmployee struct {
	UserId          *int             `json:"user_id"`
	FullName        string           `json:"full_name" binding:"required"`
	DivisionId      int              `json:"division_id" binding:"required"`
	PositionId      int              `json:"position_id" binding:"required"`
	Category        EmployeeCategory `json:"category" binding:"required"`
	Rate            decimal.Decimal  `json:"rate"`
	AllowanceAmount decimal.Decimal  `json:"allowance_amount"`
	AllowanceReason string           `json:"allowance_reason"`
	AllowanceUntil  *time.Time       `json:"allowance_until"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewEmployee) validate(ctx context.Context, id int) error {
	if !input.Category.IsValid() {
		return errors.New("invalid employee category")
	}
	if input.Rate.IsNegative() {
		return errors.New("rate cannot be negative")
	}
	if input.AllowanceAmount.IsNegative() {
		return errors.New("allowance cannot be negative")
	}
	if err := utils.ValidateResourceId[Division](ctx, input.DivisionId); err != nil {
		return errors.New("division not found")
	}
	if err := utils.ValidateResourceId[Position](ctx, input.PositionId); err != nil {
		return errors.New("position not found")
	}
	if input.UserId != nil && *input.UserId > 0 {
		if err := utils.ValidateResourceId[User](ctx, *input.UserId); err != nil {
			return errors.New("user not found")
		}
		var count int64
		var err error
		if id == 0 {
			count, err = utils.ResourceCountWhere[Employee](ctx, "user_id = ?", *input.UserId)
		} else {
			count, err = utils.ResourceCountWhere[Employee](ctx, "user_id = ? AND NOT id = ?", *input.UserId, id)
		}
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.New("user is already linked to another employee")
		}
	}
	return nil
}

type EmployeeFilter struct {
	Search     string
	Category   EmployeeCategory
	DivisionId int
	Limit      int
	Offset     int
}

func GetEmployee(ctx context.Context, role *Role, id int) (*Employee, error) {
	var employee Employee
	db := config.GetDB()
	err := db.WithContext(ctx).
		Scopes(EmployeesVisibleTo(role)).
		Preload("Division").Preload("Position").Preload("Assignments.Position").
		First(&employee, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &employee, nil
}

func ListEmployees(ctx context.Context, role *Role, filter EmployeeFilter) ([]*Employee, int64, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Employee{}).Scopes(EmployeesVisibleTo(role))

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		dbCtx = dbCtx.Where("full_name LIKE ? OR justification LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		dbCtx = dbCtx.Where("category = ?", filter.Category)
	}
	if filter.DivisionId > 0 {
		dbCtx = dbCtx.Where("division_id = ?", filter.DivisionId)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = config.SearchLimit
	}
	var employees []*Employee
	err := dbCtx.
		Preload("Division").Preload("Position").Preload("Assignments.Position").
		Order("full_name ASC").
		Limit(limit).Offset(filter.Offset).
		Find(&employees).Error
	if err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// defaultRate treats an omitted rate as full-time.
func defaultRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return rate
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	employee := Employee{
		UserId:          input.UserId,
		FullName:        input.FullName,
		DivisionId:      input.DivisionId,
		PositionId:      input.PositionId,
		Category:        input.Category,
		Rate:            defaultRate(input.Rate),
		AllowanceAmount: input.AllowanceAmount,
		AllowanceReason: input.AllowanceReason,
		AllowanceUntil:  input.AllowanceUntil,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func UpdateEmployee(ctx context.Context, id int, input *NewEmployee) (*Employee, error) {
	var employee Employee
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&employee, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}
	// Payment and Justification are deliberately absent here: they belong
	// to the recompute service.
	if err := db.WithContext(ctx).Model(&employee).Updates(map[string]interface{}{
		"user_id":          input.UserId,
		"full_name":        input.FullName,
		"division_id":      input.DivisionId,
		"position_id":      input.PositionId,
		"category":         input.Category,
		"rate":             defaultRate(input.Rate),
		"allowance_amount": input.AllowanceAmount,
		"allowance_reason": input.AllowanceReason,
		"allowance_until":  input.AllowanceUntil,
	}).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// DeleteEmployee hard-deletes the employee with its assignments and requests.
func DeleteEmployee(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Employee](ctx, id); err != nil {
		return err
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("employee_id = ?", id).Delete(&InternalAssignment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.WithContext(ctx).Where("employee_id = ?", id).Delete(&StimulusRequest{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.WithContext(ctx).Where("employee_id = ?", id).Delete(&OneTimePayment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.WithContext(ctx).Delete(&Employee{}, id).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

type NewInternalAssignment struct {
	EmployeeId      int             `json:"employee_id" binding:"required"`
	PositionId      int             `json:"position_id" binding:"required"`
	Rate            decimal.Decimal `json:"rate"`
	AllowanceAmount decimal.Decimal `json:"allowance_amount"`
	AllowanceReason string          `json:"allowance_reason"`
	AllowanceUntil  *time.Time      `json:"allowance_until"`
}

func CreateInternalAssignment(ctx context.Context, input *NewInternalAssignment) (*InternalAssignment, error) {
	if err := utils.ValidateResourceId[Employee](ctx, input.EmployeeId); err != nil {
		return nil, errors.New("employee not found")
	}
	if err := utils.ValidateResourceId[Position](ctx, input.PositionId); err != nil {
		return nil, errors.New("position not found")
	}
	if input.Rate.IsNegative() || input.AllowanceAmount.IsNegative() {
		return nil, errors.New("rate and allowance cannot be negative")
	}
	rate := defaultRate(input.Rate)
	assignment := InternalAssignment{
		EmployeeId:      input.EmployeeId,
		PositionId:      input.PositionId,
		Rate:            rate,
		AllowanceAmount: input.AllowanceAmount,
		AllowanceReason: input.AllowanceReason,
		AllowanceUntil:  input.AllowanceUntil,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func DeleteInternalAssignment(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[InternalAssignment](ctx, id); err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&InternalAssignment{}, id).Error
}

// summarizeRequests derives the employee's aggregate payment and the
// human-readable changelog from their requests, newest first. Only requests
// still in the approved state count towards the total; archived requests
// keep their frozen label in the summary but stop counting.
func summarizeRequests(requests []*StimulusRequest) (decimal.Decimal, string) {
	total := decimal.Zero
	lines := make([]string, 0, len(requests))
	for index, request := range requests {
		if request.Status == RequestStatusApproved {
			total = total.Add(request.Amount)
		}
		requester := request.RequestedByName()
		justification := strings.TrimSpace(request.Justification)
		if justification == "" {
			justification = "—"
		}
		amountDisplay := strings.Replace(request.Amount.StringFixed(2), ".", ",", 1)
		lines = append(lines, fmt.Sprintf("%d. %s ₽ — %s (%s) — %s",
			index+1, amountDisplay, request.DisplayStatus(), requester, justification))
	}
	return total, strings.Join(lines, "\n")
}

// RecomputeEmployeeTotals regenerates Payment and Justification from the
// employee's current requests. It row-locks the employee so concurrent
// recomputations for the same employee serialize. Call it inside the same
// transaction as the request mutation that made it necessary.
func RecomputeEmployeeTotals(ctx context.Context, tx *gorm.DB, employeeId int) error {
	var employee Employee
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&employee, employeeId).Error; err != nil {
		return err
	}

	var requests []*StimulusRequest
	if err := tx.WithContext(ctx).
		Where("employee_id = ?", employeeId).
		Preload("RequestedBy").
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return err
	}

	total, summary := summarizeRequests(requests)
	return tx.WithContext(ctx).Model(&employee).Updates(map[string]interface{}{
		"payment":       total,
		"justification": summary,
	}).Error
}
