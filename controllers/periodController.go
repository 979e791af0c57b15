package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stimulico/compensation_backend/models"
)

func ListRecurringPeriods(c *gin.Context) {
	periods, err := models.ListRecurringPeriods(c.Request.Context())
	if err != nil {
		respondInternal(c, "periodController", "ListRecurringPeriods", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": periods})
}

func GetRecurringPeriod(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	period, err := models.GetRecurringPeriod(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	payments, err := models.ListRecurringPayments(c.Request.Context(), role, id)
	if err != nil {
		respondInternal(c, "periodController", "GetRecurringPeriod", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":           period,
		"payments":         payments,
		"total_payments":   period.TotalPayments(payments),
		"remaining_budget": period.RemainingBudget(payments),
	})
}

func CreateRecurringPeriod(c *gin.Context) {
	var input models.NewRecurringPeriod
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	period, err := models.CreateRecurringPeriod(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, period)
}

func UpdateRecurringPeriod(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewRecurringPeriod
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	period, err := models.UpdateRecurringPeriod(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func DeleteRecurringPeriod(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteRecurringPeriod(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func OpenRecurringPeriod(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	period, err := models.OpenRecurringPeriod(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func CloseRecurringPeriod(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	period, err := models.CloseRecurringPeriod(c.Request.Context(), role, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

// UpsertRecurringPayment sets one employee's amount in an open period.
func UpsertRecurringPayment(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	var input models.SetRecurringPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	payment, err := models.UpsertRecurringPayment(c.Request.Context(), role, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func ListRecurringPaymentLogs(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	logs, err := models.ListRecurringPaymentLogs(c.Request.Context(), id)
	if err != nil {
		respondInternal(c, "periodController", "ListRecurringPaymentLogs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": logs})
}
