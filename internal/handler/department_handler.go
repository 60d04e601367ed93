package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-service/internal/model"
	"school-service/pkg/database"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// CreateDepartment creates a department in the caller's school
func CreateDepartment(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Name          string `json:"name" validate:"required"`
		HeadTeacherID *uint  `json:"head_teacher_id"`
		SchoolID      string `json:"school_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	schoolID, err := createSchoolID(c, req.SchoolID)
	if err != nil {
		return err
	}

	dept := model.Department{
		SchoolID:      schoolID,
		SchoolName:    lookupSchoolName(schoolID),
		Name:          req.Name,
		HeadTeacherID: req.HeadTeacherID,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&dept); result.Error != nil {
		log.Error("Failed to create department", zap.Error(result.Error))
		return createFailure(c, result.Error, "department already exists in this school", "department")
	}

	prometheus.RecordResourceOperation("department", "create")
	return c.JSON(http.StatusCreated, dept)
}

// ListDepartments returns departments in the caller's school
func ListDepartments(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.Department{}))

	var total int64
	q.Count(&total)

	var depts []model.Department
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&depts); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list departments"})
	}
	return paginated(c, "departments", depts, page, limit, total)
}

// GetDepartment returns one department, within the caller's scope
func GetDepartment(c echo.Context) error {
	scope := readScope(c)

	var dept model.Department
	if result := scope.Apply(database.GetDB()).First(&dept, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "department not found"})
	}
	return c.JSON(http.StatusOK, dept)
}

// UpdateDepartment edits a department's mutable fields
func UpdateDepartment(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var dept model.Department
	if result := scope.Apply(database.GetDB()).First(&dept, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "department not found"})
	}

	var req struct {
		Name          *string `json:"name"`
		HeadTeacherID *uint   `json:"head_teacher_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != nil {
		dept.Name = *req.Name
	}
	if req.HeadTeacherID != nil {
		dept.HeadTeacherID = req.HeadTeacherID
	}
	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&dept).Error; err != nil {
		log.Error("Failed to update department", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update department"})
	}

	prometheus.RecordResourceOperation("department", "update")
	return c.JSON(http.StatusOK, dept)
}

// DeleteDepartment soft-deletes a department
func DeleteDepartment(c echo.Context) error {
	scope := readScope(c)

	var dept model.Department
	if result := scope.Apply(database.GetDB()).First(&dept, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "department not found"})
	}
	if err := database.GetDB().Delete(&dept).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete department"})
	}

	prometheus.RecordResourceOperation("department", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "department deleted"})
}
