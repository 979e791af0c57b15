package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
)

// PositionQuota is one row of the staffing table: how many FTEs a division
// holds for a position and how many of them are occupied or vacant.
type PositionQuota struct {
	ID          int             `gorm:"primary_key" json:"id"`
	DivisionId  int             `gorm:"index;not null;uniqueIndex:uniq_quota_division_position" json:"division_id" binding:"required"`
	PositionId  int             `gorm:"index;not null;uniqueIndex:uniq_quota_division_position" json:"position_id" binding:"required"`
	TotalFte    decimal.Decimal `gorm:"type:decimal(6,3);default:0" json:"total_fte"`
	OccupiedFte decimal.Decimal `gorm:"type:decimal(6,3);default:0" json:"occupied_fte"`
	VacantFte   decimal.Decimal `gorm:"type:decimal(6,3);default:0" json:"vacant_fte"`
	Comment     string          `gorm:"size:255" json:"comment"`
	Division    *Division       `gorm:"foreignKey:DivisionId" json:"division,omitempty"`
	Position    *Position       `gorm:"foreignKey:PositionId" json:"position,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// PositionQuotaVersion keeps historical staffing-table rows with an effective range.
type PositionQuotaVersion struct {
	ID            int             `gorm:"primary_key" json:"id"`
	QuotaId       int             `gorm:"index;not null" json:"quota_id"`
	EffectiveFrom time.Time       `gorm:"not null" json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to"`
	TotalFte      decimal.Decimal `gorm:"type:decimal(6,3);default:0" json:"total_fte"`
	OccupiedFte   decimal.Decimal `gorm:"type:decimal(6,3);default:0" json:"occupied_fte"`
	VacantFte     decimal.Decimal `gorm:"type:decimal(6,3);default:0" json:"vacant_fte"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPositionQuota struct {
	DivisionId  int             `json:"division_id" binding:"required"`
	PositionId  int             `json:"position_id" binding:"required"`
	TotalFte    decimal.Decimal `json:"total_fte"`
	OccupiedFte decimal.Decimal `json:"occupied_fte"`
	VacantFte   decimal.Decimal `json:"vacant_fte"`
	Comment     string          `json:"comment"`
}

// Validate checks the FTE arithmetic without touching the database.
func (input *NewPositionQuota) Validate() error {
	if input.OccupiedFte.IsNegative() || input.VacantFte.IsNegative() {
		return errors.New("FTE counts cannot be negative")
	}
	if input.OccupiedFte.Add(input.VacantFte).GreaterThan(input.TotalFte) {
		return errors.New("occupied plus vacant FTE cannot exceed the total")
	}
	return nil
}

func (input *NewPositionQuota) validate(ctx context.Context, id int) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Division](ctx, input.DivisionId); err != nil {
		return errors.New("division not found")
	}
	if err := utils.ValidateResourceId[Position](ctx, input.PositionId); err != nil {
		return errors.New("position not found")
	}
	var count int64
	var err error
	if id == 0 {
		count, err = utils.ResourceCountWhere[PositionQuota](ctx, "division_id = ? AND position_id = ?", input.DivisionId, input.PositionId)
	} else {
		count, err = utils.ResourceCountWhere[PositionQuota](ctx, "division_id = ? AND position_id = ? AND NOT id = ?", input.DivisionId, input.PositionId, id)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("a staffing row for this division and position already exists")
	}
	return nil
}

func ListPositionQuotas(ctx context.Context, divisionId int) ([]*PositionQuota, error) {
	var quotas []*PositionQuota
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Division").Preload("Position")
	if divisionId > 0 {
		dbCtx = dbCtx.Where("division_id = ?", divisionId)
	}
	if err := dbCtx.Find(&quotas).Error; err != nil {
		return nil, err
	}
	return quotas, nil
}

func CreatePositionQuota(ctx context.Context, input *NewPositionQuota) (*PositionQuota, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	quota := PositionQuota{
		DivisionId:  input.DivisionId,
		PositionId:  input.PositionId,
		TotalFte:    input.TotalFte,
		OccupiedFte: input.OccupiedFte,
		VacantFte:   input.VacantFte,
		Comment:     input.Comment,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&quota).Error; err != nil {
		return nil, err
	}
	return &quota, nil
}

// UpdatePositionQuota updates the row and snapshots the previous values
// into a version record effective until now.
func UpdatePositionQuota(ctx context.Context, id int, input *NewPositionQuota) (*PositionQuota, error) {
	var quota PositionQuota
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&quota, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version := PositionQuotaVersion{
		QuotaId:       quota.ID,
		EffectiveFrom: quota.UpdatedAt,
		EffectiveTo:   &now,
		TotalFte:      quota.TotalFte,
		OccupiedFte:   quota.OccupiedFte,
		VacantFte:     quota.VacantFte,
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&version).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&quota).Updates(map[string]interface{}{
		"total_fte":    input.TotalFte,
		"occupied_fte": input.OccupiedFte,
		"vacant_fte":   input.VacantFte,
		"comment":      input.Comment,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &quota, nil
}

func DeletePositionQuota(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[PositionQuota](ctx, id); err != nil {
		return err
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("quota_id = ?", id).Delete(&PositionQuotaVersion{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.WithContext(ctx).Delete(&PositionQuota{}, id).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
