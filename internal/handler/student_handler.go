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

// CreateStudent enrolls a student directly, outside the admission flow
func CreateStudent(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		UserID      *uint      `json:"user_id"`
		ParentID    *uint      `json:"parent_id"`
		StudentCode string     `json:"student_code" validate:"required"`
		FirstName   string     `json:"first_name" validate:"required"`
		LastName    string     `json:"last_name"`
		Grade       string     `json:"grade"`
		Section     string     `json:"section"`
		BirthDate   *time.Time `json:"birth_date"`
		SchoolID    string     `json:"school_id,omitempty"`
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

	student := model.Student{
		UserID:      req.UserID,
		ParentID:    req.ParentID,
		SchoolID:    schoolID,
		SchoolName:  lookupSchoolName(schoolID),
		StudentCode: req.StudentCode,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Grade:       req.Grade,
		Section:     req.Section,
		BirthDate:   req.BirthDate,
		Status:      "active",
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&student); result.Error != nil {
		log.Error("Failed to create student", zap.Error(result.Error))
		return createFailure(c, result.Error, "student code already exists in this school", "student")
	}

	prometheus.RecordResourceOperation("student", "create")
	var count int64
	database.GetDB().Model(&model.Student{}).Where("school_id = ?", student.SchoolID).Count(&count)
	prometheus.UpdateStudentsPerSchool(student.SchoolID, student.SchoolName, int(count))
	log.Info("Student created",
		zap.Uint("student_id", student.ID),
		zap.String("school_id", student.SchoolID))
	return c.JSON(http.StatusCreated, student)
}

// ListStudents returns students in the caller's school
func ListStudents(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.Student{}))
	if grade := c.QueryParam("grade"); grade != "" {
		q = q.Where("grade = ?", grade)
	}
	if parent := c.QueryParam("parent_id"); parent != "" {
		q = q.Where("parent_id = ?", parent)
	}

	var total int64
	q.Count(&total)

	var students []model.Student
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&students); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list students"})
	}
	return paginated(c, "students", students, page, limit, total)
}

// GetStudent returns one student, within the caller's scope. Family callers
// only see students of their own family.
func GetStudent(c echo.Context) error {
	scope := readScope(c)

	var student model.Student
	if result := familyNarrow(c, scope.Apply(database.GetDB()), "id").
		First(&student, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}
	return c.JSON(http.StatusOK, student)
}

// UpdateStudent edits a student's mutable fields
func UpdateStudent(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var student model.Student
	if result := scope.Apply(database.GetDB()).First(&student, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}

	var req struct {
		UserID    *uint      `json:"user_id"`
		ParentID  *uint      `json:"parent_id"`
		FirstName *string    `json:"first_name"`
		LastName  *string    `json:"last_name"`
		Grade     *string    `json:"grade"`
		Section   *string    `json:"section"`
		BirthDate *time.Time `json:"birth_date"`
		Status    *string    `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.UserID != nil {
		student.UserID = req.UserID
	}
	if req.ParentID != nil {
		student.ParentID = req.ParentID
	}
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.Grade != nil {
		student.Grade = *req.Grade
	}
	if req.Section != nil {
		student.Section = *req.Section
	}
	if req.BirthDate != nil {
		student.BirthDate = req.BirthDate
	}
	if req.Status != nil {
		student.Status = *req.Status
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&student).Error; err != nil {
		log.Error("Failed to update student", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update student"})
	}

	prometheus.RecordResourceOperation("student", "update")
	return c.JSON(http.StatusOK, student)
}

// DeleteStudent soft-deletes a student
func DeleteStudent(c echo.Context) error {
	scope := readScope(c)

	var student model.Student
	if result := scope.Apply(database.GetDB()).First(&student, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}
	if err := database.GetDB().Delete(&student).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete student"})
	}

	prometheus.RecordResourceOperation("student", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "student deleted"})
}

// MyChildren returns the caller's linked students (parent view)
func MyChildren(c echo.Context) error {
	p := principal(c)

	var parent model.Parent
	if result := database.GetDB().Where("user_id = ?", p.UserID).First(&parent); result.Error != nil {
		return c.JSON(http.StatusOK, echo.Map{"students": []model.Student{}})
	}

	var students []model.Student
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := database.GetDB().Where("parent_id = ?", parent.ID).Order("id").Find(&students); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list students"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": students})
}
