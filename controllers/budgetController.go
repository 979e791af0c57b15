package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stimulico/compensation_backend/models"
)

func ListBudgets(c *gin.Context) {
	budgets, err := models.ListBudgets(c.Request.Context(), queryInt(c, "year"))
	if err != nil {
		respondInternal(c, "budgetController", "ListBudgets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": budgets})
}

func GetBudget(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	budget, err := models.GetBudget(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	allocations, err := models.ListBudgetAllocations(c.Request.Context(), id)
	if err != nil {
		respondInternal(c, "budgetController", "GetBudget", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"budget":      budget,
		"available":   budget.Available(),
		"allocations": allocations,
	})
}

func CreateBudget(c *gin.Context) {
	var input models.NewBudget
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	budget, err := models.CreateBudget(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, budget)
}

func UpdateBudget(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewBudget
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	budget, err := models.UpdateBudget(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func DeleteBudget(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteBudget(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func CreateBudgetAllocation(c *gin.Context) {
	var input models.NewBudgetAllocation
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	allocation, err := models.CreateBudgetAllocation(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, allocation)
}

func DeleteBudgetAllocation(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteBudgetAllocation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type allocationMutationInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func mutateAllocationHandler(mutate func(c *gin.Context, id int, amount decimal.Decimal) (*models.BudgetAllocation, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input allocationMutationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		allocation, err := mutate(c, id, input.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, allocation)
	}
}

var ReserveAllocation = mutateAllocationHandler(func(c *gin.Context, id int, amount decimal.Decimal) (*models.BudgetAllocation, error) {
	return models.ReserveAllocation(c.Request.Context(), id, amount)
})

var ReleaseAllocation = mutateAllocationHandler(func(c *gin.Context, id int, amount decimal.Decimal) (*models.BudgetAllocation, error) {
	return models.ReleaseAllocation(c.Request.Context(), id, amount)
})

var SpendAllocation = mutateAllocationHandler(func(c *gin.Context, id int, amount decimal.Decimal) (*models.BudgetAllocation, error) {
	return models.SpendAllocation(c.Request.Context(), id, amount)
})
