package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Budget is a decimal ledger for a funding source. The invariant
// reserved + spent ≤ total holds after every successful mutation.
type Budget struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Type      BudgetType      `gorm:"size:16;not null" json:"type" binding:"required"`
	Year      int             `gorm:"not null;index" json:"year" binding:"required"`
	Month     *int            `gorm:"index" json:"month"`
	Total     decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"total"`
	Reserved  decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"reserved"`
	Spent     decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"spent"`
	Comment   string          `gorm:"size:255" json:"comment"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BudgetAllocation is a sub-ledger of a Budget tied to exactly one of a
// recurring period or a campaign, enforced by a check constraint.
type BudgetAllocation struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BudgetId   int             `gorm:"index;not null" json:"budget_id" binding:"required"`
	PeriodId   *int            `gorm:"index" json:"period_id"`
	CampaignId *int            `gorm:"index" json:"campaign_id"`
	Allocated  decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"allocated"`
	Reserved   decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"reserved"`
	Spent      decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"spent"`

	Budget *Budget `gorm:"foreignKey:BudgetId" json:"budget,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BudgetAllocation) TableName() string {
	return "budget_allocations"
}

// Available is total minus reserved minus spent.
func (b *Budget) Available() decimal.Decimal {
	return b.Total.Sub(b.Reserved).Sub(b.Spent)
}

func (a *BudgetAllocation) Available() decimal.Decimal {
	return a.Allocated.Sub(a.Reserved).Sub(a.Spent)
}

// reserve, release and spend are the pure ledger mutators. Each validates
// its guard and mutates the pair in memory; the transactional wrappers below
// persist both rows atomically.

func (a *BudgetAllocation) reserve(budget *Budget, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if amount.GreaterThan(a.Available()) {
		return errors.New("amount exceeds the allocation's available balance")
	}
	if amount.GreaterThan(budget.Available()) {
		return errors.New("amount exceeds the budget's available balance")
	}
	a.Reserved = a.Reserved.Add(amount)
	budget.Reserved = budget.Reserved.Add(amount)
	return nil
}

func (a *BudgetAllocation) release(budget *Budget, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if amount.GreaterThan(a.Reserved) || amount.GreaterThan(budget.Reserved) {
		return errors.New("cannot release more than is reserved")
	}
	a.Reserved = a.Reserved.Sub(amount)
	budget.Reserved = budget.Reserved.Sub(amount)
	return nil
}

// spend converts a reservation into spend; the amount must already be reserved.
func (a *BudgetAllocation) spend(budget *Budget, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if amount.GreaterThan(a.Reserved) || amount.GreaterThan(budget.Reserved) {
		return errors.New("cannot spend more than is reserved")
	}
	a.Reserved = a.Reserved.Sub(amount)
	a.Spent = a.Spent.Add(amount)
	budget.Reserved = budget.Reserved.Sub(amount)
	budget.Spent = budget.Spent.Add(amount)
	return nil
}

type NewBudget struct {
	Name    string          `json:"name" binding:"required"`
	Type    BudgetType      `json:"type" binding:"required"`
	Year    int             `json:"year" binding:"required"`
	Month   *int            `json:"month"`
	Total   decimal.Decimal `json:"total"`
	Comment string          `json:"comment"`
}

func (input *NewBudget) validate() error {
	if !input.Type.IsValid() {
		return errors.New("invalid budget type")
	}
	if input.Month != nil && (*input.Month < 1 || *input.Month > 12) {
		return errors.New("month must be between 1 and 12")
	}
	if input.Total.IsNegative() {
		return errors.New("total cannot be negative")
	}
	return nil
}

// ensureBudgetUnique keeps one budget per year/month/type; a yearly budget
// has no month. excludeId skips the budget being updated.
func ensureBudgetUnique(ctx context.Context, input *NewBudget, excludeId int) error {
	count, err := utils.ResourceCountWhere[Budget](ctx,
		"year = ? AND type = ? AND month <=> ? AND id <> ?",
		input.Year, input.Type, input.Month, excludeId)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("a budget for this year, month and type already exists")
	}
	return nil
}

func GetBudget(ctx context.Context, id int) (*Budget, error) {
	var budget Budget
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&budget, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &budget, nil
}

func ListBudgets(ctx context.Context, year int) ([]*Budget, error) {
	var budgets []*Budget
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Order("year DESC, name ASC")
	if year > 0 {
		dbCtx = dbCtx.Where("year = ?", year)
	}
	if err := dbCtx.Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

func CreateBudget(ctx context.Context, input *NewBudget) (*Budget, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := ensureBudgetUnique(ctx, input, 0); err != nil {
		return nil, err
	}
	budget := Budget{
		Name:    input.Name,
		Type:    input.Type,
		Year:    input.Year,
		Month:   input.Month,
		Total:   input.Total,
		Comment: input.Comment,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func UpdateBudget(ctx context.Context, id int, input *NewBudget) (*Budget, error) {
	budget, err := GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if input.Total.LessThan(budget.Reserved.Add(budget.Spent)) {
		return nil, errors.New("total cannot fall below what is already reserved and spent")
	}
	if err := ensureBudgetUnique(ctx, input, budget.ID); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(budget).Updates(map[string]interface{}{
		"name":    input.Name,
		"type":    input.Type,
		"year":    input.Year,
		"month":   input.Month,
		"total":   input.Total,
		"comment": input.Comment,
	}).Error; err != nil {
		return nil, err
	}
	return budget, nil
}

func DeleteBudget(ctx context.Context, id int) error {
	if _, err := GetBudget(ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[BudgetAllocation](ctx, "budget_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("cannot delete a budget that still has allocations")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Budget{}, id).Error
}

type NewBudgetAllocation struct {
	BudgetId   int             `json:"budget_id" binding:"required"`
	PeriodId   *int            `json:"period_id"`
	CampaignId *int            `json:"campaign_id"`
	Allocated  decimal.Decimal `json:"allocated"`
}

func (input *NewBudgetAllocation) validate(ctx context.Context) error {
	if input.Allocated.IsNegative() {
		return errors.New("allocated amount cannot be negative")
	}
	hasPeriod := input.PeriodId != nil
	hasCampaign := input.CampaignId != nil
	if hasPeriod == hasCampaign {
		return errors.New("an allocation must target exactly one of a period or a campaign")
	}
	if _, err := GetBudget(ctx, input.BudgetId); err != nil {
		return errors.New("budget not found")
	}
	if hasPeriod {
		if err := utils.ValidateResourceId[RecurringPeriod](ctx, *input.PeriodId); err != nil {
			return errors.New("period not found")
		}
	}
	if hasCampaign {
		if err := utils.ValidateResourceId[RequestCampaign](ctx, *input.CampaignId); err != nil {
			return errors.New("campaign not found")
		}
	}
	return nil
}

func GetBudgetAllocation(ctx context.Context, id int) (*BudgetAllocation, error) {
	var allocation BudgetAllocation
	db := config.GetDB()
	if err := db.WithContext(ctx).Preload("Budget").First(&allocation, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &allocation, nil
}

func ListBudgetAllocations(ctx context.Context, budgetId int) ([]*BudgetAllocation, error) {
	var allocations []*BudgetAllocation
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Budget").Order("id ASC")
	if budgetId > 0 {
		dbCtx = dbCtx.Where("budget_id = ?", budgetId)
	}
	if err := dbCtx.Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func CreateBudgetAllocation(ctx context.Context, input *NewBudgetAllocation) (*BudgetAllocation, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	allocation := BudgetAllocation{
		BudgetId:   input.BudgetId,
		PeriodId:   input.PeriodId,
		CampaignId: input.CampaignId,
		Allocated:  input.Allocated,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&allocation).Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}

func DeleteBudgetAllocation(ctx context.Context, id int) error {
	allocation, err := GetBudgetAllocation(ctx, id)
	if err != nil {
		return err
	}
	if !allocation.Reserved.IsZero() || !allocation.Spent.IsZero() {
		return errors.New("cannot delete an allocation with reserved or spent funds")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&BudgetAllocation{}, id).Error
}

// mutateAllocation row-locks the allocation and its parent budget, applies
// the mutator and persists both rows in one transaction. Failing guards
// leave both ledgers untouched.
func mutateAllocation(ctx context.Context, allocationId int, mutate func(allocation *BudgetAllocation, budget *Budget) error) (*BudgetAllocation, error) {
	db := config.GetDB()
	tx := db.Begin()

	var allocation BudgetAllocation
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&allocation, allocationId).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	var budget Budget
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&budget, allocation.BudgetId).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	if err := mutate(&allocation, &budget); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&allocation).Updates(map[string]interface{}{
		"reserved": allocation.Reserved,
		"spent":    allocation.Spent,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&budget).Updates(map[string]interface{}{
		"reserved": budget.Reserved,
		"spent":    budget.Spent,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	allocation.Budget = &budget
	return &allocation, nil
}

func ReserveAllocation(ctx context.Context, allocationId int, amount decimal.Decimal) (*BudgetAllocation, error) {
	return mutateAllocation(ctx, allocationId, func(allocation *BudgetAllocation, budget *Budget) error {
		return allocation.reserve(budget, amount)
	})
}

func ReleaseAllocation(ctx context.Context, allocationId int, amount decimal.Decimal) (*BudgetAllocation, error) {
	return mutateAllocation(ctx, allocationId, func(allocation *BudgetAllocation, budget *Budget) error {
		return allocation.release(budget, amount)
	})
}

func SpendAllocation(ctx context.Context, allocationId int, amount decimal.Decimal) (*BudgetAllocation, error) {
	return mutateAllocation(ctx, allocationId, func(allocation *BudgetAllocation, budget *Budget) error {
		return allocation.spend(budget, amount)
	})
}

// allocationCheckConstraint is applied by migration tooling; kept here so the
// schema requirement lives next to the model.
func allocationCheckConstraint(db *gorm.DB) error {
	return db.Exec(`ALTER TABLE budget_allocations ADD CONSTRAINT allocation_single_target
		CHECK ((period_id IS NULL) <> (campaign_id IS NULL))`).Error
}
