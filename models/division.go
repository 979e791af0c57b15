package models

import (
	"context"
	"errors"
	"time"

	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
)

type Division struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDivision struct {
	Name string `json:"name" binding:"required"`
}

func GetDivision(ctx context.Context, id int) (*Division, error) {
	var division Division
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&division, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &division, nil
}

func ListDivisions(ctx context.Context) ([]*Division, error) {
	var divisions []*Division
	db := config.GetDB()
	if err := db.WithContext(ctx).Order("name ASC").Find(&divisions).Error; err != nil {
		return nil, err
	}
	return divisions, nil
}

func CreateDivision(ctx context.Context, input *NewDivision) (*Division, error) {
	if err := utils.ValidateUnique[Division](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}
	division := Division{Name: input.Name}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&division).Error; err != nil {
		return nil, err
	}
	return &division, nil
}

func UpdateDivision(ctx context.Context, id int, input *NewDivision) (*Division, error) {
	division, err := GetDivision(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Division](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(division).Update("name", input.Name).Error; err != nil {
		return nil, err
	}
	return division, nil
}

// DeleteDivision refuses while any employee still belongs to the division.
func DeleteDivision(ctx context.Context, id int) error {
	if _, err := GetDivision(ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[Employee](ctx, "division_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("cannot delete a division that still has employees")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Division{}, id).Error
}
