package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
	"gorm.io/gorm/clause"
)

// RecurringPeriod is a payment round: one payment row per employee, editable
// while the period is open, locked for good when it closes.
type RecurringPeriod struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:255;not null" json:"name" binding:"required"`
	StartDate   time.Time       `gorm:"not null;index" json:"start_date" binding:"required"`
	EndDate     time.Time       `gorm:"not null" json:"end_date" binding:"required"`
	BudgetLimit decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"budget_limit"`
	Notes       string          `gorm:"type:text" json:"notes"`
	Status      PeriodStatus    `gorm:"size:16;not null;default:draft;index" json:"status"`
	ClosedAt    *time.Time      `json:"closed_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type RecurringPayment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PeriodId    int             `gorm:"index;not null;uniqueIndex:uniq_payment_period_employee" json:"period_id" binding:"required"`
	EmployeeId  int             `gorm:"index;not null;uniqueIndex:uniq_payment_period_employee" json:"employee_id" binding:"required"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reason      string          `gorm:"size:255" json:"reason"`
	Description string          `gorm:"type:text" json:"description"`
	IsLocked    bool            `gorm:"not null;default:false" json:"is_locked"`

	Employee *Employee        `gorm:"foreignKey:EmployeeId" json:"employee,omitempty"`
	Period   *RecurringPeriod `gorm:"foreignKey:PeriodId" json:"period,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecurringPaymentLog is the audit trail: one entry per payment change.
type RecurringPaymentLog struct {
	ID             int             `gorm:"primary_key" json:"id"`
	PaymentId      int             `gorm:"index;not null" json:"payment_id"`
	UserId         int             `gorm:"index" json:"user_id"`
	OldAmount      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"old_amount"`
	NewAmount      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"new_amount"`
	OldDescription string          `gorm:"type:text" json:"old_description"`
	NewDescription string          `gorm:"type:text" json:"new_description"`
	Reason         string          `gorm:"size:255" json:"reason"`
	Action         string          `gorm:"size:32;not null" json:"action"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (p *RecurringPeriod) canOpen() error {
	if p.Status != PeriodStatusDraft {
		return errors.New("only a draft period can be opened")
	}
	return nil
}

func (p *RecurringPeriod) canClose() error {
	if p.Status != PeriodStatusOpen {
		return errors.New("only an open period can be closed")
	}
	return nil
}

// TotalPayments sums the given payment rows; callers pass the period's rows.
func (p *RecurringPeriod) TotalPayments(payments []*RecurringPayment) decimal.Decimal {
	total := decimal.Zero
	for _, payment := range payments {
		total = total.Add(payment.Amount)
	}
	return total
}

// RemainingBudget is the limit minus the payments; zero limit means no cap.
func (p *RecurringPeriod) RemainingBudget(payments []*RecurringPayment) decimal.Decimal {
	if p.BudgetLimit.IsZero() {
		return decimal.Zero
	}
	return p.BudgetLimit.Sub(p.TotalPayments(payments))
}

type NewRecurringPeriod struct {
	Name        string          `json:"name" binding:"required"`
	StartDate   time.Time       `json:"start_date" binding:"required"`
	EndDate     time.Time       `json:"end_date" binding:"required"`
	BudgetLimit decimal.Decimal `json:"budget_limit"`
	Notes       string          `json:"notes"`
}

// Validate checks the date arithmetic without touching the database.
func (input *NewRecurringPeriod) Validate() error {
	if input.EndDate.Before(input.StartDate) {
		return errors.New("end date cannot be before the start date")
	}
	if input.BudgetLimit.IsNegative() {
		return errors.New("budget limit cannot be negative")
	}
	return nil
}

func GetRecurringPeriod(ctx context.Context, id int) (*RecurringPeriod, error) {
	var period RecurringPeriod
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&period, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &period, nil
}

func ListRecurringPeriods(ctx context.Context) ([]*RecurringPeriod, error) {
	var periods []*RecurringPeriod
	db := config.GetDB()
	if err := db.WithContext(ctx).Order("start_date DESC").Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

func CreateRecurringPeriod(ctx context.Context, input *NewRecurringPeriod) (*RecurringPeriod, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	period := RecurringPeriod{
		Name:        input.Name,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		BudgetLimit: input.BudgetLimit,
		Notes:       input.Notes,
		Status:      PeriodStatusDraft,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&period).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func UpdateRecurringPeriod(ctx context.Context, id int, input *NewRecurringPeriod) (*RecurringPeriod, error) {
	period, err := GetRecurringPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if period.Status == PeriodStatusClosed {
		return nil, errors.New("a closed period cannot be edited")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(period).Updates(map[string]interface{}{
		"name":         input.Name,
		"start_date":   input.StartDate,
		"end_date":     input.EndDate,
		"budget_limit": input.BudgetLimit,
		"notes":        input.Notes,
	}).Error; err != nil {
		return nil, err
	}
	return period, nil
}

func DeleteRecurringPeriod(ctx context.Context, id int) error {
	period, err := GetRecurringPeriod(ctx, id)
	if err != nil {
		return err
	}
	if period.Status != PeriodStatusDraft {
		return errors.New("only a draft period can be deleted")
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("period_id = ?", id).Delete(&RecurringPayment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.WithContext(ctx).Delete(&RecurringPeriod{}, id).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// OpenRecurringPeriod transitions the period to open and seeds one payment
// row per employee, so the grid always has a line to edit.
func OpenRecurringPeriod(ctx context.Context, id int) (*RecurringPeriod, error) {
	period, err := GetRecurringPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := period.canOpen(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	var employeeIds []int
	if err := tx.WithContext(ctx).Model(&Employee{}).Pluck("id", &employeeIds).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, employeeId := range employeeIds {
		payment := RecurringPayment{
			PeriodId:   period.ID,
			EmployeeId: employeeId,
			Amount:     decimal.Zero,
		}
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&payment).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(period).Update("status", PeriodStatusOpen).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return period, nil
}

// CloseRecurringPeriod locks every payment and writes one audit log entry
// per newly locked payment, all in one transaction.
func CloseRecurringPeriod(ctx context.Context, role *Role, id int) (*RecurringPeriod, error) {
	period, err := GetRecurringPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := period.canClose(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	var payments []*RecurringPayment
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("period_id = ?", period.ID).
		Find(&payments).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, payment := range payments {
		if payment.IsLocked {
			continue
		}
		if err := tx.WithContext(ctx).Model(payment).Update("is_locked", true).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		log := RecurringPaymentLog{
			PaymentId:      payment.ID,
			UserId:         role.UserId,
			OldAmount:      payment.Amount,
			NewAmount:      payment.Amount,
			OldDescription: payment.Description,
			NewDescription: payment.Description,
			Reason:         "period closed",
			Action:         "locked",
		}
		if err := tx.WithContext(ctx).Create(&log).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Model(period).Updates(map[string]interface{}{
		"status":    PeriodStatusClosed,
		"closed_at": now,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return period, nil
}

func ListRecurringPayments(ctx context.Context, role *Role, periodId int) ([]*RecurringPayment, error) {
	var payments []*RecurringPayment
	db := config.GetDB()
	err := db.WithContext(ctx).
		Joins("JOIN employees ON employees.id = recurring_payments.employee_id").
		Scopes(EmployeesVisibleTo(role)).
		Where("recurring_payments.period_id = ?", periodId).
		Preload("Employee").
		Order("recurring_payments.id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

type SetRecurringPayment struct {
	PeriodId    int             `json:"period_id" binding:"required"`
	EmployeeId  int             `json:"employee_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Reason      string          `json:"reason"`
	Description string          `json:"description"`
}

// UpsertRecurringPayment sets an employee's amount for an open period,
// logging the change. Locked payments and non-open periods refuse the write.
func UpsertRecurringPayment(ctx context.Context, role *Role, input *SetRecurringPayment) (*RecurringPayment, error) {
	if !input.Amount.IsPositive() {
		return nil, errors.New("amount must be greater than zero")
	}
	period, err := GetRecurringPeriod(ctx, input.PeriodId)
	if err != nil {
		return nil, errors.New("period not found")
	}
	if period.Status != PeriodStatusOpen {
		return nil, errors.New("payments can only be edited while the period is open")
	}
	if err := utils.ValidateResourceId[Employee](ctx, input.EmployeeId); err != nil {
		return nil, errors.New("employee not found")
	}

	db := config.GetDB()
	tx := db.Begin()

	var payment RecurringPayment
	err = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("period_id = ? AND employee_id = ?", input.PeriodId, input.EmployeeId).
		First(&payment).Error
	if err != nil {
		payment = RecurringPayment{
			PeriodId:    input.PeriodId,
			EmployeeId:  input.EmployeeId,
			Amount:      input.Amount,
			Reason:      input.Reason,
			Description: input.Description,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		log := RecurringPaymentLog{
			PaymentId:      payment.ID,
			UserId:         role.UserId,
			NewAmount:      input.Amount,
			NewDescription: input.Description,
			Reason:         input.Reason,
			Action:         "created",
		}
		if err := tx.WithContext(ctx).Create(&log).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}
		return &payment, nil
	}

	if payment.IsLocked {
		tx.Rollback()
		return nil, errors.New("this payment is locked")
	}

	oldAmount := payment.Amount
	oldDescription := payment.Description
	if err := tx.WithContext(ctx).Model(&payment).Updates(map[string]interface{}{
		"amount":      input.Amount,
		"reason":      input.Reason,
		"description": input.Description,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	log := RecurringPaymentLog{
		PaymentId:      payment.ID,
		UserId:         role.UserId,
		OldAmount:      oldAmount,
		NewAmount:      input.Amount,
		OldDescription: oldDescription,
		NewDescription: input.Description,
		Reason:         input.Reason,
		Action:         "updated",
	}
	if err := tx.WithContext(ctx).Create(&log).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func ListRecurringPaymentLogs(ctx context.Context, paymentId int) ([]*RecurringPaymentLog, error) {
	var logs []*RecurringPaymentLog
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentId).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
