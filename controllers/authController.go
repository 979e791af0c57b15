package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stimulico/compensation_backend/models"
	"github.com/stimulico/compensation_backend/utils"
)

type loginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a bearer token.
func Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := models.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	token, err := utils.JwtGenerate(user.ID, user.Username)
	if err != nil {
		respondInternal(c, "authController", "Login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":        user.ID,
			"username":  user.Username,
			"full_name": user.DisplayName(),
			"is_staff":  user.IsStaff,
			"groups":    user.GroupNames(),
		},
	})
}

// Profile returns the authenticated caller's display data and role flags.
func Profile(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                    role.UserId,
		"username":              role.Username,
		"full_name":             role.FullName,
		"is_staff":              role.IsStaff,
		"groups":                role.Groups(),
		"is_department_manager": role.IsDepartmentManager(),
		"is_employee":           role.IsEmployee(),
		"can_view_all_requests": role.CanViewAllRequests(),
		"employee_id":           role.EmployeeId,
	})
}
