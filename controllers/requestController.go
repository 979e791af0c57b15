package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/models"
)

func ListStimulusRequests(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	filter := models.StimulusRequestFilter{
		CampaignId: queryInt(c, "campaign_id"),
		EmployeeId: queryInt(c, "employee_id"),
		Status:     models.RequestStatus(c.Query("status")),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}
	requests, total, err := models.ListStimulusRequests(c.Request.Context(), role, filter)
	if err != nil {
		respondInternal(c, "requestController", "ListStimulusRequests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "results": requests})
}

func GetStimulusRequest(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	request, err := models.GetStimulusRequest(c.Request.Context(), role, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request":        request,
		"display_status": request.DisplayStatus(),
		"can_edit":       role.CanEditRequest(request),
		"can_delete":     role.CanDeleteRequest(request),
		"can_resolve":    role.CanChangeRequestStatus(request),
	})
}

func CreateStimulusRequest(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	var input models.NewStimulusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	request, err := models.CreateStimulusRequest(c.Request.Context(), role, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func UpdateStimulusRequest(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewStimulusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	request, err := models.UpdateStimulusRequest(c.Request.Context(), role, id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type resolveRequestInput struct {
	Status       string `json:"status" binding:"required"`
	AdminComment string `json:"admin_comment"`
}

// ResolveStimulusRequest approves or rejects a request. Staff only.
func ResolveStimulusRequest(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input resolveRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	decision, err := models.ParseRequestDecision(input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	request, err := models.UpdateStimulusRequestStatus(c.Request.Context(), role, id, decision, input.AdminComment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func DeleteStimulusRequest(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteStimulusRequest(c.Request.Context(), role, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkCreateRequestsInput struct {
	CampaignId    int             `json:"campaign_id" binding:"required"`
	EmployeeIds   []int           `json:"employee_ids" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Justification string          `json:"justification"`
}

// BulkCreateStimulusRequests submits the same request for many employees.
func BulkCreateStimulusRequests(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	var input bulkCreateRequestsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	requests, err := models.BulkCreateStimulusRequests(c.Request.Context(), role,
		input.CampaignId, input.EmployeeIds, input.Amount, input.Justification)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(requests), "results": requests})
}

type bulkDeleteRequestsInput struct {
	Ids []int `json:"ids" binding:"required"`
}

// BulkDeleteStimulusRequests deletes a batch of requests, all or nothing.
func BulkDeleteStimulusRequests(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	var input bulkDeleteRequestsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	if err := models.BulkDeleteStimulusRequests(c.Request.Context(), role, input.Ids); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
