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

// CreateTeacher creates a teacher profile in the caller's school. When a
// department is given it must belong to the same school; the profile caches
// the department's school id so later lookups skip the join.
func CreateTeacher(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		UserID       uint   `json:"user_id" validate:"required"`
		DepartmentID *uint  `json:"department_id"`
		EmployeeCode string `json:"employee_code" validate:"required"`
		FirstName    string `json:"first_name" validate:"required"`
		LastName     string `json:"last_name"`
		Subject      string `json:"subject"`
		Phone        string `json:"phone"`
		SchoolID     string `json:"school_id,omitempty"`
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

	if req.DepartmentID != nil {
		var dept model.Department
		if result := database.GetDB().First(&dept, *req.DepartmentID); result.Error != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "department not found"})
		}
		if schoolID == "" {
			schoolID = dept.SchoolID
		} else if dept.SchoolID != schoolID {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "department belongs to another school"})
		}
	}

	teacher := model.Teacher{
		UserID:       req.UserID,
		DepartmentID: req.DepartmentID,
		SchoolID:     schoolID,
		SchoolName:   lookupSchoolName(schoolID),
		EmployeeCode: req.EmployeeCode,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Subject:      req.Subject,
		Phone:        req.Phone,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&teacher); result.Error != nil {
		log.Error("Failed to create teacher", zap.Error(result.Error))
		return createFailure(c, result.Error, "employee code already exists in this school", "teacher")
	}

	prometheus.RecordResourceOperation("teacher", "create")
	log.Info("Teacher created",
		zap.Uint("teacher_id", teacher.ID),
		zap.String("school_id", teacher.SchoolID))
	return c.JSON(http.StatusCreated, teacher)
}

// ListTeachers returns teachers in the caller's school
func ListTeachers(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.Teacher{}))
	if dept := c.QueryParam("department_id"); dept != "" {
		q = q.Where("department_id = ?", dept)
	}

	var total int64
	q.Count(&total)

	var teachers []model.Teacher
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&teachers); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list teachers"})
	}
	return paginated(c, "teachers", teachers, page, limit, total)
}

// GetTeacher returns one teacher, within the caller's scope
func GetTeacher(c echo.Context) error {
	scope := readScope(c)

	var teacher model.Teacher
	if result := scope.Apply(database.GetDB()).First(&teacher, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "teacher not found"})
	}
	return c.JSON(http.StatusOK, teacher)
}

// UpdateTeacher edits a teacher's mutable fields. The school columns stay
// untouched even when the department changes.
func UpdateTeacher(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var teacher model.Teacher
	if result := scope.Apply(database.GetDB()).First(&teacher, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "teacher not found"})
	}

	var req struct {
		DepartmentID *uint   `json:"department_id"`
		EmployeeCode *string `json:"employee_code"`
		FirstName    *string `json:"first_name"`
		LastName     *string `json:"last_name"`
		Subject      *string `json:"subject"`
		Phone        *string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.DepartmentID != nil {
		var dept model.Department
		if result := database.GetDB().First(&dept, *req.DepartmentID); result.Error != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "department not found"})
		}
		if dept.SchoolID != teacher.SchoolID {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "department belongs to another school"})
		}
		teacher.DepartmentID = req.DepartmentID
	}
	if req.EmployeeCode != nil {
		teacher.EmployeeCode = *req.EmployeeCode
	}
	if req.FirstName != nil {
		teacher.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		teacher.LastName = *req.LastName
	}
	if req.Subject != nil {
		teacher.Subject = *req.Subject
	}
	if req.Phone != nil {
		teacher.Phone = *req.Phone
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&teacher).Error; err != nil {
		log.Error("Failed to update teacher", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update teacher"})
	}

	prometheus.RecordResourceOperation("teacher", "update")
	return c.JSON(http.StatusOK, teacher)
}

// DeleteTeacher soft-deletes a teacher profile
func DeleteTeacher(c echo.Context) error {
	scope := readScope(c)

	var teacher model.Teacher
	if result := scope.Apply(database.GetDB()).First(&teacher, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "teacher not found"})
	}
	if err := database.GetDB().Delete(&teacher).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete teacher"})
	}

	prometheus.RecordResourceOperation("teacher", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "teacher deleted"})
}
