package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
)

type Position struct {
	ID         int             `gorm:"primary_key" json:"id"`
	Name       string          `gorm:"size:255;uniqueIndex;not null" json:"name" binding:"required"`
	BaseSalary decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"base_salary"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPosition struct {
	Name       string          `json:"name" binding:"required"`
	BaseSalary decimal.Decimal `json:"base_salary"`
}

func GetPosition(ctx context.Context, id int) (*Position, error) {
	var position Position
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&position, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &position, nil
}

func ListPositions(ctx context.Context) ([]*Position, error) {
	var positions []*Position
	db := config.GetDB()
	if err := db.WithContext(ctx).Order("name ASC").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func CreatePosition(ctx context.Context, input *NewPosition) (*Position, error) {
	if input.BaseSalary.IsNegative() {
		return nil, errors.New("base salary cannot be negative")
	}
	if err := utils.ValidateUnique[Position](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}
	position := Position{Name: input.Name, BaseSalary: input.BaseSalary}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&position).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

func UpdatePosition(ctx context.Context, id int, input *NewPosition) (*Position, error) {
	position, err := GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.BaseSalary.IsNegative() {
		return nil, errors.New("base salary cannot be negative")
	}
	if err := utils.ValidateUnique[Position](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(position).Updates(map[string]interface{}{
		"name":        input.Name,
		"base_salary": input.BaseSalary,
	}).Error; err != nil {
		return nil, err
	}
	return position, nil
}

// DeletePosition refuses while any employee or assignment still holds the position.
func DeletePosition(ctx context.Context, id int) error {
	if _, err := GetPosition(ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Employee](ctx, "position_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("cannot delete a position that still has employees")
	}
	count, err = utils.ResourceCountWhere[InternalAssignment](ctx, "position_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("cannot delete a position that still has internal assignments")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Position{}, id).Error
}
