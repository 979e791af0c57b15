package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stimulico/compensation_backend/models"
)

// ListRequestCampaigns is role-filtered: staff and department managers see
// every campaign, everyone else only the ones currently accepting requests.
func ListRequestCampaigns(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	if !role.IsStaff && !role.IsDepartmentManager() {
		campaigns, err := models.ActiveCampaigns(c.Request.Context(), time.Now().UTC())
		if err != nil {
			respondInternal(c, "campaignController", "ListRequestCampaigns", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": campaigns})
		return
	}
	campaigns, err := models.ListRequestCampaigns(c.Request.Context(), models.CampaignStatus(c.Query("status")))
	if err != nil {
		respondInternal(c, "campaignController", "ListRequestCampaigns", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": campaigns})
}

// ListActiveCampaigns returns the campaigns currently accepting requests;
// the first is the default target for a new request form.
func ListActiveCampaigns(c *gin.Context) {
	campaigns, err := models.ActiveCampaigns(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondInternal(c, "campaignController", "ListActiveCampaigns", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": campaigns})
}

func GetRequestCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	campaign, err := models.GetRequestCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func CreateRequestCampaign(c *gin.Context) {
	var input models.NewRequestCampaign
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	campaign, err := models.CreateRequestCampaign(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func UpdateRequestCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewRequestCampaign
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	campaign, err := models.UpdateRequestCampaign(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func DeleteRequestCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteRequestCampaign(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func OpenRequestCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	campaign, err := models.OpenRequestCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

type closeCampaignInput struct {
	Archive bool `json:"archive"`
}

func CloseRequestCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input closeCampaignInput
	_ = c.ShouldBindJSON(&input)
	campaign, err := models.CloseRequestCampaign(c.Request.Context(), id, input.Archive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func ReopenRequestCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	campaign, err := models.ReopenRequestCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func ArchiveRequestCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	campaign, err := models.ArchiveRequestCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}
