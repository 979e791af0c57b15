package models

import (
	"context"
	"errors"
	"time"

	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
)

const defaultAutoCloseDay = 15

// RequestCampaign is the time-boxed window during which stimulus requests
// may be submitted. Status walks draft → open → closed → archived, with
// closed → open as the only backward transition.
type RequestCampaign struct {
	ID            int            `gorm:"primary_key" json:"id"`
	Name          string         `gorm:"size:255;not null" json:"name" binding:"required"`
	Status        CampaignStatus `gorm:"size:16;not null;default:draft;index" json:"status"`
	OpensAt       time.Time      `gorm:"not null" json:"opens_at" binding:"required"`
	Deadline      *time.Time     `json:"deadline"`
	AutoClose     bool           `gorm:"not null;default:true" json:"auto_close"`
	AutoCloseDay  int            `gorm:"not null;default:15" json:"auto_close_day"`
	Description   string         `gorm:"type:text" json:"description"`
	ClosedAt      *time.Time     `json:"closed_at"`
	ArchivedAt    *time.Time     `json:"archived_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// canOpen, canClose, canReopen and canArchive are the pure transition
// guards. They report the conflict without touching the database.

func (c *RequestCampaign) canOpen() error {
	if c.Status != CampaignStatusDraft {
		return errors.New("only a draft campaign can be opened")
	}
	return nil
}

func (c *RequestCampaign) canClose() error {
	if c.Status != CampaignStatusOpen {
		return errors.New("only an open campaign can be closed")
	}
	return nil
}

func (c *RequestCampaign) canReopen() error {
	if c.Status != CampaignStatusClosed {
		return errors.New("only a closed campaign can be reopened")
	}
	return nil
}

func (c *RequestCampaign) canArchive() error {
	if c.Status != CampaignStatusClosed {
		return errors.New("only a closed campaign can be archived")
	}
	return nil
}

// AcceptsRequests reports whether new requests may target this campaign.
func (c *RequestCampaign) AcceptsRequests() bool {
	return c.Status != CampaignStatusDraft && c.Status != CampaignStatusArchived
}

// ShouldAutoClose reports whether the auto-close sweep ought to close this
// campaign on the given date: strictly after the deadline, or, for campaigns
// without one, once the day of month passes the configured auto-close day.
func (c *RequestCampaign) ShouldAutoClose(onDate time.Time) bool {
	if c.Status != CampaignStatusOpen || !c.AutoClose {
		return false
	}
	if c.Deadline != nil {
		deadline := c.Deadline.Truncate(24 * time.Hour)
		return onDate.Truncate(24 * time.Hour).After(deadline)
	}
	day := c.AutoCloseDay
	if day <= 0 {
		day = defaultAutoCloseDay
	}
	return onDate.Day() > day
}

type NewRequestCampaign struct {
	Name         string     `json:"name" binding:"required"`
	OpensAt      time.Time  `json:"opens_at" binding:"required"`
	Deadline     *time.Time `json:"deadline"`
	AutoClose    *bool      `json:"auto_close"`
	AutoCloseDay int        `json:"auto_close_day"`
	Description  string     `json:"description"`
}

// Validate checks the schedule arithmetic without touching the database.
func (input *NewRequestCampaign) Validate() error {
	if input.Deadline != nil && input.Deadline.Before(input.OpensAt) {
		return errors.New("deadline cannot be before the opening date")
	}
	if input.AutoCloseDay < 0 || input.AutoCloseDay > 31 {
		return errors.New("auto-close day must be between 1 and 31")
	}
	return nil
}

func GetRequestCampaign(ctx context.Context, id int) (*RequestCampaign, error) {
	var campaign RequestCampaign
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&campaign, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &campaign, nil
}

func ListRequestCampaigns(ctx context.Context, status CampaignStatus) ([]*RequestCampaign, error) {
	var campaigns []*RequestCampaign
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Order("opens_at DESC")
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	if err := dbCtx.Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// ActiveCampaigns returns open campaigns whose window includes today. The
// first one is offered as the default target for new requests.
func ActiveCampaigns(ctx context.Context, today time.Time) ([]*RequestCampaign, error) {
	var campaigns []*RequestCampaign
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("status = ?", CampaignStatusOpen).
		Where("opens_at <= ?", today).
		Where("deadline IS NULL OR deadline >= ?", today).
		Order("opens_at DESC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

func CreateRequestCampaign(ctx context.Context, input *NewRequestCampaign) (*RequestCampaign, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	autoClose := true
	if input.AutoClose != nil {
		autoClose = *input.AutoClose
	}
	autoCloseDay := input.AutoCloseDay
	if autoCloseDay == 0 {
		autoCloseDay = defaultAutoCloseDay
	}
	campaign := RequestCampaign{
		Name:         input.Name,
		Status:       CampaignStatusDraft,
		OpensAt:      input.OpensAt,
		Deadline:     input.Deadline,
		AutoClose:    autoClose,
		AutoCloseDay: autoCloseDay,
		Description:  input.Description,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func UpdateRequestCampaign(ctx context.Context, id int, input *NewRequestCampaign) (*RequestCampaign, error) {
	campaign, err := GetRequestCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status == CampaignStatusArchived {
		return nil, errors.New("an archived campaign cannot be edited")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	autoClose := campaign.AutoClose
	if input.AutoClose != nil {
		autoClose = *input.AutoClose
	}
	autoCloseDay := input.AutoCloseDay
	if autoCloseDay == 0 {
		autoCloseDay = campaign.AutoCloseDay
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(campaign).Updates(map[string]interface{}{
		"name":           input.Name,
		"opens_at":       input.OpensAt,
		"deadline":       input.Deadline,
		"auto_close":     autoClose,
		"auto_close_day": autoCloseDay,
		"description":    input.Description,
	}).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

// DeleteRequestCampaign refuses while any request still references the campaign.
func DeleteRequestCampaign(ctx context.Context, id int) error {
	if _, err := GetRequestCampaign(ctx, id); err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[StimulusRequest](ctx, "campaign_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("cannot delete a campaign that still has requests")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&RequestCampaign{}, id).Error
}

func OpenRequestCampaign(ctx context.Context, id int) (*RequestCampaign, error) {
	campaign, err := GetRequestCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := campaign.canOpen(); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(campaign).Update("status", CampaignStatusOpen).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

// CloseRequestCampaign stamps closed_at and optionally chains straight into
// archiving.
func CloseRequestCampaign(ctx context.Context, id int, archive bool) (*RequestCampaign, error) {
	campaign, err := GetRequestCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := campaign.canClose(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(campaign).Updates(map[string]interface{}{
		"status":    CampaignStatusClosed,
		"closed_at": now,
	}).Error; err != nil {
		return nil, err
	}
	if archive {
		return ArchiveRequestCampaign(ctx, id)
	}
	return campaign, nil
}

func ReopenRequestCampaign(ctx context.Context, id int) (*RequestCampaign, error) {
	campaign, err := GetRequestCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := campaign.canReopen(); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(campaign).Updates(map[string]interface{}{
		"status":    CampaignStatusOpen,
		"closed_at": nil,
	}).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

// ArchiveRequestCampaign freezes every child request and archives the
// campaign in one transaction. A campaign with pending requests cannot be
// archived; an already archived campaign is a no-op.
func ArchiveRequestCampaign(ctx context.Context, id int) (*RequestCampaign, error) {
	campaign, err := GetRequestCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status == CampaignStatusArchived {
		return campaign, nil
	}
	if err := campaign.canArchive(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	pending, err := pendingRequestCount(ctx, tx, campaign.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if pending > 0 {
		tx.Rollback()
		return nil, errors.New("cannot archive a campaign with pending requests")
	}

	now := time.Now().UTC()
	if err := freezeCampaignRequests(ctx, tx, campaign.ID, now); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(campaign).Updates(map[string]interface{}{
		"status":      CampaignStatusArchived,
		"archived_at": now,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return campaign, nil
}
