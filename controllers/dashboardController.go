package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stimulico/compensation_backend/models"
	"github.com/stimulico/compensation_backend/models/reports"
)

func GetDashboard(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	metrics, err := reports.CollectDashboardMetrics(c.Request.Context(), role)
	if err != nil {
		respondInternal(c, "dashboardController", "GetDashboard", err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// ExportDashboard streams the dashboard snapshot as an XLSX attachment.
func ExportDashboard(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	workbook, err := reports.BuildDashboardWorkbook(c.Request.Context(), role)
	if err != nil {
		respondInternal(c, "dashboardController", "ExportDashboard", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+reports.AttachmentName("dashboard")+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		respondInternal(c, "dashboardController", "ExportDashboard", err)
	}
}

// Reference-data controllers for divisions, positions and the staffing table.

func ListDivisions(c *gin.Context) {
	divisions, err := models.ListDivisions(c.Request.Context())
	if err != nil {
		respondInternal(c, "dashboardController", "ListDivisions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": divisions})
}

func CreateDivision(c *gin.Context) {
	var input models.NewDivision
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	division, err := models.CreateDivision(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, division)
}

func UpdateDivision(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewDivision
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	division, err := models.UpdateDivision(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, division)
}

func DeleteDivision(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteDivision(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ListPositions(c *gin.Context) {
	positions, err := models.ListPositions(c.Request.Context())
	if err != nil {
		respondInternal(c, "dashboardController", "ListPositions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": positions})
}

func CreatePosition(c *gin.Context) {
	var input models.NewPosition
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	position, err := models.CreatePosition(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, position)
}

func UpdatePosition(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPosition
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	position, err := models.UpdatePosition(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, position)
}

func DeletePosition(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeletePosition(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ListPositionQuotas(c *gin.Context) {
	quotas, err := models.ListPositionQuotas(c.Request.Context(), queryInt(c, "division_id"))
	if err != nil {
		respondInternal(c, "dashboardController", "ListPositionQuotas", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": quotas})
}

func CreatePositionQuota(c *gin.Context) {
	var input models.NewPositionQuota
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	quota, err := models.CreatePositionQuota(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quota)
}

func UpdatePositionQuota(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPositionQuota
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	quota, err := models.UpdatePositionQuota(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quota)
}

func DeletePositionQuota(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeletePositionQuota(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ListOneTimePayments(c *gin.Context) {
	payments, err := models.ListOneTimePayments(c.Request.Context(), queryInt(c, "employee_id"), queryInt(c, "campaign_id"))
	if err != nil {
		respondInternal(c, "dashboardController", "ListOneTimePayments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": payments})
}

func CreateOneTimePayment(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	var input models.NewOneTimePayment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	payment, err := models.CreateOneTimePayment(c.Request.Context(), role, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func DeleteOneTimePayment(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteOneTimePayment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
