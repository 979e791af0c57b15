package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
	"gorm.io/gorm"
)

// StimulusRequest is a proposed one-time payment to an employee. It is
// created pending, resolved to approved or rejected by staff, and becomes
// archived only as a side effect of its campaign archiving.
type StimulusRequest struct {
	ID            int             `gorm:"primary_key" json:"id"`
	EmployeeId    int             `gorm:"index;not null" json:"employee_id" binding:"required"`
	RequestedById int             `gorm:"index;not null" json:"requested_by_id"`
	CampaignId    int             `gorm:"index;not null" json:"campaign_id" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount" binding:"required"`
	Justification string          `gorm:"type:text" json:"justification"`
	Status        RequestStatus   `gorm:"size:16;not null;default:pending;index" json:"status"`

	// FinalStatus is the display label frozen at archive time; empty until then.
	FinalStatus  string     `gorm:"size:64" json:"final_status"`
	AdminComment string     `gorm:"type:text" json:"admin_comment"`
	ArchivedAt   *time.Time `json:"archived_at"`

	Employee    *Employee        `gorm:"foreignKey:EmployeeId" json:"employee,omitempty"`
	RequestedBy *User            `gorm:"foreignKey:RequestedById" json:"requested_by,omitempty"`
	Campaign    *RequestCampaign `gorm:"foreignKey:CampaignId" json:"campaign,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeSave keeps archived_at consistent with the status on every write:
// non-null iff the request is archived. Map-based Updates bypass the struct
// receiver, so the clear has to go through SetColumn as well; the status
// being written is read from the update map when one is present.
func (r *StimulusRequest) BeforeSave(tx *gorm.DB) error {
	status := r.Status
	if dest, ok := tx.Statement.Dest.(map[string]interface{}); ok {
		switch v := dest["status"].(type) {
		case RequestStatus:
			status = v
		case string:
			status = RequestStatus(v)
		}
	}
	if status != RequestStatusArchived {
		r.ArchivedAt = nil
		tx.Statement.SetColumn("archived_at", nil)
	}
	return nil
}

// DisplayStatus is the human-readable status: the frozen label once
// archived, the live label otherwise.
func (r *StimulusRequest) DisplayStatus() string {
	if r.FinalStatus != "" {
		return r.FinalStatus
	}
	return r.Status.DisplayLabel()
}

// RequestedByName needs RequestedBy preloaded; falls back to the raw id.
func (r *StimulusRequest) RequestedByName() string {
	if r.RequestedBy != nil {
		return r.RequestedBy.DisplayName()
	}
	return "—"
}

type NewStimulusRequest struct {
	EmployeeId    int             `json:"employee_id" binding:"required"`
	CampaignId    int             `json:"campaign_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Justification string          `json:"justification"`
}

func (input *NewStimulusRequest) validate(ctx context.Context) error {
	if !input.Amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if err := utils.ValidateResourceId[Employee](ctx, input.EmployeeId); err != nil {
		return errors.New("employee not found")
	}
	campaign, err := GetRequestCampaign(ctx, input.CampaignId)
	if err != nil {
		return errors.New("campaign not found")
	}
	if !campaign.AcceptsRequests() {
		return errors.New("requests cannot target a draft or archived campaign")
	}
	return nil
}

type StimulusRequestFilter struct {
	CampaignId int
	EmployeeId int
	Status     RequestStatus
	Limit      int
	Offset     int
}

func GetStimulusRequest(ctx context.Context, role *Role, id int) (*StimulusRequest, error) {
	var request StimulusRequest
	db := config.GetDB()
	err := db.WithContext(ctx).
		Scopes(RequestsVisibleTo(role)).
		Preload("Employee").Preload("RequestedBy").Preload("Campaign").
		First(&request, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &request, nil
}

func ListStimulusRequests(ctx context.Context, role *Role, filter StimulusRequestFilter) ([]*StimulusRequest, int64, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&StimulusRequest{}).Scopes(RequestsVisibleTo(role))

	if filter.CampaignId > 0 {
		dbCtx = dbCtx.Where("campaign_id = ?", filter.CampaignId)
	}
	if filter.EmployeeId > 0 {
		dbCtx = dbCtx.Where("employee_id = ?", filter.EmployeeId)
	}
	if filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filter.Status)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = config.SearchLimit
	}
	var requests []*StimulusRequest
	err := dbCtx.
		Preload("Employee").Preload("RequestedBy").Preload("Campaign").
		Order("created_at DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// CreateStimulusRequest inserts the request and recomputes the employee's
// totals in the same transaction.
func CreateStimulusRequest(ctx context.Context, role *Role, input *NewStimulusRequest) (*StimulusRequest, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	request := StimulusRequest{
		EmployeeId:    input.EmployeeId,
		RequestedById: role.UserId,
		CampaignId:    input.CampaignId,
		Amount:        input.Amount,
		Justification: input.Justification,
		Status:        RequestStatusPending,
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&request).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := RecomputeEmployeeTotals(ctx, tx, request.EmployeeId); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func UpdateStimulusRequest(ctx context.Context, role *Role, id int, input *NewStimulusRequest) (*StimulusRequest, error) {
	request, err := GetStimulusRequest(ctx, role, id)
	if err != nil {
		return nil, err
	}
	if !role.CanEditRequest(request) {
		return nil, utils.ErrorPermissionDenied
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	previousEmployeeId := request.EmployeeId
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(request).Updates(map[string]interface{}{
		"employee_id":   input.EmployeeId,
		"campaign_id":   input.CampaignId,
		"amount":        input.Amount,
		"justification": input.Justification,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := RecomputeEmployeeTotals(ctx, tx, input.EmployeeId); err != nil {
		tx.Rollback()
		return nil, err
	}
	// Moving a request between employees leaves a stale total behind.
	if previousEmployeeId != input.EmployeeId {
		if err := RecomputeEmployeeTotals(ctx, tx, previousEmployeeId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return request, nil
}

// UpdateStimulusRequestStatus resolves a pending request. Staff only.
func UpdateStimulusRequestStatus(ctx context.Context, role *Role, id int, decision RequestStatus, adminComment string) (*StimulusRequest, error) {
	request, err := GetStimulusRequest(ctx, role, id)
	if err != nil {
		return nil, err
	}
	if !role.CanChangeRequestStatus(request) {
		return nil, utils.ErrorPermissionDenied
	}
	if decision != RequestStatusApproved && decision != RequestStatusRejected {
		return nil, errors.New("status must be approved or rejected")
	}
	if request.Status == RequestStatusArchived {
		return nil, errors.New("an archived request cannot be resolved")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(request).Updates(map[string]interface{}{
		"status":        decision,
		"admin_comment": adminComment,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := RecomputeEmployeeTotals(ctx, tx, request.EmployeeId); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return request, nil
}

func DeleteStimulusRequest(ctx context.Context, role *Role, id int) error {
	request, err := GetStimulusRequest(ctx, role, id)
	if err != nil {
		return err
	}
	if !role.CanDeleteRequest(request) {
		return utils.ErrorPermissionDenied
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&StimulusRequest{}, id).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := RecomputeEmployeeTotals(ctx, tx, request.EmployeeId); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// BulkCreateStimulusRequests creates one pending request per employee, all
// against the same campaign, recomputing each affected employee once.
func BulkCreateStimulusRequests(ctx context.Context, role *Role, campaignId int, employeeIds []int, amount decimal.Decimal, justification string) ([]*StimulusRequest, error) {
	if !amount.IsPositive() {
		return nil, errors.New("amount must be greater than zero")
	}
	campaign, err := GetRequestCampaign(ctx, campaignId)
	if err != nil {
		return nil, errors.New("campaign not found")
	}
	if !campaign.AcceptsRequests() {
		return nil, errors.New("requests cannot target a draft or archived campaign")
	}
	if err := utils.ValidateResourcesId[Employee](ctx, employeeIds); err != nil {
		return nil, errors.New("employee not found")
	}

	db := config.GetDB()
	tx := db.Begin()
	requests := make([]*StimulusRequest, 0, len(employeeIds))
	for _, employeeId := range utils.UniqueSlice(employeeIds) {
		request := StimulusRequest{
			EmployeeId:    employeeId,
			RequestedById: role.UserId,
			CampaignId:    campaignId,
			Amount:        amount,
			Justification: justification,
			Status:        RequestStatusPending,
		}
		if err := tx.WithContext(ctx).Create(&request).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := RecomputeEmployeeTotals(ctx, tx, employeeId); err != nil {
			tx.Rollback()
			return nil, err
		}
		requests = append(requests, &request)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// BulkDeleteStimulusRequests deletes every listed request the caller may
// delete, in one transaction. One forbidden request aborts the whole batch.
func BulkDeleteStimulusRequests(ctx context.Context, role *Role, ids []int) error {
	db := config.GetDB()
	tx := db.Begin()
	employeeIds := make([]int, 0, len(ids))
	for _, id := range utils.UniqueSlice(ids) {
		var request StimulusRequest
		if err := tx.WithContext(ctx).Scopes(RequestsVisibleTo(role)).First(&request, id).Error; err != nil {
			tx.Rollback()
			return utils.ErrorRecordNotFound
		}
		if !role.CanDeleteRequest(&request) {
			tx.Rollback()
			return utils.ErrorPermissionDenied
		}
		if err := tx.WithContext(ctx).Delete(&StimulusRequest{}, id).Error; err != nil {
			tx.Rollback()
			return err
		}
		employeeIds = append(employeeIds, request.EmployeeId)
	}
	for _, employeeId := range utils.UniqueSlice(employeeIds) {
		if err := RecomputeEmployeeTotals(ctx, tx, employeeId); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit().Error
}

// pendingRequestCount counts unresolved requests for a campaign inside the
// caller's transaction.
func pendingRequestCount(ctx context.Context, tx *gorm.DB, campaignId int) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&StimulusRequest{}).
		Where("campaign_id = ? AND status = ?", campaignId, RequestStatusPending).
		Count(&count).Error
	return count, err
}

// freezeCampaignRequests captures each request's display status into
// final_status, forces the request to archived and recomputes every touched
// employee. Runs inside the campaign archive transaction.
func freezeCampaignRequests(ctx context.Context, tx *gorm.DB, campaignId int, archivedAt time.Time) error {
	var requests []*StimulusRequest
	if err := tx.WithContext(ctx).
		Where("campaign_id = ? AND status <> ?", campaignId, RequestStatusArchived).
		Find(&requests).Error; err != nil {
		return err
	}
	employeeIds := make([]int, 0, len(requests))
	for _, request := range requests {
		finalStatus := request.Status.DisplayLabel() + " (Archive)"
		if err := tx.WithContext(ctx).Model(request).Updates(map[string]interface{}{
			"status":       RequestStatusArchived,
			"final_status": finalStatus,
			"archived_at":  archivedAt,
		}).Error; err != nil {
			return err
		}
		employeeIds = append(employeeIds, request.EmployeeId)
	}
	for _, employeeId := range utils.UniqueSlice(employeeIds) {
		if err := RecomputeEmployeeTotals(ctx, tx, employeeId); err != nil {
			return err
		}
	}
	return nil
}
