package models

import (
	"strings"

	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every model. Safe to run at
// startup; AutoMigrate only adds what is missing.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Division{},
		&Position{},
		&PositionQuota{},
		&PositionQuotaVersion{},
		&User{},
		&Group{},
		&UserDivision{},
		&Employee{},
		&InternalAssignment{},
		&RequestCampaign{},
		&StimulusRequest{},
		&OneTimePayment{},
		&Budget{},
		&BudgetAllocation{},
		&RecurringPeriod{},
		&RecurringPayment{},
		&RecurringPaymentLog{},
	)
	if err != nil {
		return err
	}
	if err := allocationCheckConstraint(db); err != nil {
		// MySQL has no ADD CONSTRAINT IF NOT EXISTS; a duplicate is fine.
		if !strings.Contains(err.Error(), "Duplicate") {
			return err
		}
	}
	return nil
}
