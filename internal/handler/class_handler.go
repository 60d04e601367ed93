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

// CreateClass creates a homeroom in the caller's school. A teacher creating
// a class always lands it in their own school regardless of what the
// request body claims.
func CreateClass(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Name      string `json:"name" validate:"required"`
		Grade     string `json:"grade"`
		Section   string `json:"section"`
		TeacherID *uint  `json:"teacher_id"`
		Capacity  int    `json:"capacity"`
		SchoolID  string `json:"school_id,omitempty"`
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

	class := model.Class{
		SchoolID:   schoolID,
		SchoolName: lookupSchoolName(schoolID),
		Name:       req.Name,
		Grade:      req.Grade,
		Section:    req.Section,
		TeacherID:  req.TeacherID,
		Capacity:   req.Capacity,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&class); result.Error != nil {
		log.Error("Failed to create class", zap.Error(result.Error))
		return createFailure(c, result.Error, "class already exists in this school", "class")
	}

	prometheus.RecordResourceOperation("class", "create")
	log.Info("Class created", zap.Uint("class_id", class.ID), zap.String("school_id", class.SchoolID))
	return c.JSON(http.StatusCreated, class)
}

// ListClasses returns classes in the caller's school
func ListClasses(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.Class{}))
	if grade := c.QueryParam("grade"); grade != "" {
		q = q.Where("grade = ?", grade)
	}

	var total int64
	q.Count(&total)

	var classes []model.Class
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&classes); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list classes"})
	}
	return paginated(c, "classes", classes, page, limit, total)
}

// GetClass returns one class, within the caller's scope
func GetClass(c echo.Context) error {
	scope := readScope(c)

	var class model.Class
	if result := scope.Apply(database.GetDB()).First(&class, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
	}
	return c.JSON(http.StatusOK, class)
}

// UpdateClass edits a class's mutable fields
func UpdateClass(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var class model.Class
	if result := scope.Apply(database.GetDB()).First(&class, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
	}

	var req struct {
		Name      *string `json:"name"`
		Grade     *string `json:"grade"`
		Section   *string `json:"section"`
		TeacherID *uint   `json:"teacher_id"`
		Capacity  *int    `json:"capacity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Grade != nil {
		class.Grade = *req.Grade
	}
	if req.Section != nil {
		class.Section = *req.Section
	}
	if req.TeacherID != nil {
		class.TeacherID = req.TeacherID
	}
	if req.Capacity != nil {
		class.Capacity = *req.Capacity
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&class).Error; err != nil {
		log.Error("Failed to update class", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update class"})
	}

	prometheus.RecordResourceOperation("class", "update")
	return c.JSON(http.StatusOK, class)
}

// DeleteClass soft-deletes a class
func DeleteClass(c echo.Context) error {
	scope := readScope(c)

	var class model.Class
	if result := scope.Apply(database.GetDB()).First(&class, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
	}
	if err := database.GetDB().Delete(&class).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete class"})
	}

	prometheus.RecordResourceOperation("class", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "class deleted"})
}
