package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
)

// OneTimePayment is a manual payment recorded outside the request workflow,
// optionally tied to a campaign for reporting.
type OneTimePayment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	EmployeeId  int             `gorm:"index;not null" json:"employee_id" binding:"required"`
	CampaignId  *int            `gorm:"index" json:"campaign_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount" binding:"required"`
	Reason      string          `gorm:"size:255" json:"reason"`
	PaidAt      time.Time       `gorm:"not null" json:"paid_at"`
	CreatedById int             `gorm:"index" json:"created_by_id"`

	Employee  *Employee        `gorm:"foreignKey:EmployeeId" json:"employee,omitempty"`
	Campaign  *RequestCampaign `gorm:"foreignKey:CampaignId" json:"campaign,omitempty"`
	CreatedBy *User            `gorm:"foreignKey:CreatedById" json:"created_by,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOneTimePayment struct {
	EmployeeId int             `json:"employee_id" binding:"required"`
	CampaignId *int            `json:"campaign_id"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Reason     string          `json:"reason"`
	PaidAt     *time.Time      `json:"paid_at"`
}

func (input *NewOneTimePayment) validate(ctx context.Context) error {
	if !input.Amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if err := utils.ValidateResourceId[Employee](ctx, input.EmployeeId); err != nil {
		return errors.New("employee not found")
	}
	if input.CampaignId != nil {
		campaign, err := GetRequestCampaign(ctx, *input.CampaignId)
		if err != nil {
			return errors.New("campaign not found")
		}
		if campaign.Status == CampaignStatusDraft {
			return errors.New("payments cannot target a draft campaign")
		}
	}
	return nil
}

func ListOneTimePayments(ctx context.Context, employeeId int, campaignId int) ([]*OneTimePayment, error) {
	var payments []*OneTimePayment
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Employee").Preload("Campaign").Preload("CreatedBy").Order("paid_at DESC")
	if employeeId > 0 {
		dbCtx = dbCtx.Where("employee_id = ?", employeeId)
	}
	if campaignId > 0 {
		dbCtx = dbCtx.Where("campaign_id = ?", campaignId)
	}
	if err := dbCtx.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func CreateOneTimePayment(ctx context.Context, role *Role, input *NewOneTimePayment) (*OneTimePayment, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	paidAt := time.Now().UTC()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	payment := OneTimePayment{
		EmployeeId:  input.EmployeeId,
		CampaignId:  input.CampaignId,
		Amount:      input.Amount,
		Reason:      input.Reason,
		PaidAt:      paidAt,
		CreatedById: role.UserId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func DeleteOneTimePayment(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[OneTimePayment](ctx, id); err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&OneTimePayment{}, id).Error
}
