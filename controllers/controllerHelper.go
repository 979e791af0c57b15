package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/models"
	"github.com/stimulico/compensation_backend/utils"
)

// respondError maps model-layer errors onto HTTP statuses: not-found → 404,
// permission → 403, everything else is treated as a validation conflict.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, utils.ErrorPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func respondBindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func respondInternal(c *gin.Context, moduleName string, funcName string, err error) {
	logger := config.GetLogger()
	config.LogError(logger, moduleName, funcName, "request failed", nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}

// roleFrom aborts with 401 when the auth middleware did not run.
func roleFrom(c *gin.Context) (*models.Role, bool) {
	role, ok := models.GetRoleFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return nil, false
	}
	return role, true
}
