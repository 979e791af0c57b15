package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stimulico/compensation_backend/models"
	"github.com/stimulico/compensation_backend/models/reports"
)

func ListEmployees(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	filter := models.EmployeeFilter{
		Search:     c.Query("search"),
		Category:   models.EmployeeCategory(c.Query("category")),
		DivisionId: queryInt(c, "division_id"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}
	employees, total, err := models.ListEmployees(c.Request.Context(), role, filter)
	if err != nil {
		respondInternal(c, "employeeController", "ListEmployees", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "results": employees})
}

func GetEmployee(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	employee, err := models.GetEmployee(c.Request.Context(), role, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employee":                  employee,
		"salary_amount":             employee.SalaryAmount(),
		"assignments_salary_amount": employee.AssignmentsSalaryAmount(),
		"allowance_total":           employee.AllowanceTotal(),
		"total_payments":            employee.TotalPayments(),
	})
}

func CreateEmployee(c *gin.Context) {
	var input models.NewEmployee
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	employee, err := models.CreateEmployee(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	reports.InvalidateDashboardCache()
	c.JSON(http.StatusCreated, employee)
}

func UpdateEmployee(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewEmployee
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	employee, err := models.UpdateEmployee(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	reports.InvalidateDashboardCache()
	c.JSON(http.StatusOK, employee)
}

func DeleteEmployee(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteEmployee(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	reports.InvalidateDashboardCache()
	c.Status(http.StatusNoContent)
}

// ImportEmployees accepts a multipart upload named "file" and runs the
// Excel importer, returning per-row errors and counts.
func ImportEmployees(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a file upload named 'file' is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondInternal(c, "employeeController", "ImportEmployees", err)
		return
	}
	defer file.Close()

	result, err := models.ImportEmployeesFromExcel(c.Request.Context(), file)
	if err != nil {
		respondError(c, err)
		return
	}
	reports.InvalidateDashboardCache()
	c.JSON(http.StatusOK, result)
}

// ExportEmployees streams the visible employees as an XLSX attachment.
func ExportEmployees(c *gin.Context) {
	role, ok := roleFrom(c)
	if !ok {
		return
	}
	filter := models.EmployeeFilter{
		Search:     c.Query("search"),
		Category:   models.EmployeeCategory(c.Query("category")),
		DivisionId: queryInt(c, "division_id"),
	}
	workbook, err := reports.BuildEmployeesWorkbook(c.Request.Context(), role, filter)
	if err != nil {
		respondInternal(c, "employeeController", "ExportEmployees", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+reports.AttachmentName("employees")+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		respondInternal(c, "employeeController", "ExportEmployees", err)
	}
}

func CreateInternalAssignment(c *gin.Context) {
	var input models.NewInternalAssignment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	assignment, err := models.CreateInternalAssignment(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func DeleteInternalAssignment(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteInternalAssignment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
