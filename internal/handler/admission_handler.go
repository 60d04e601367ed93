package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-service/internal/admission"
	"school-service/internal/model"
	"school-service/pkg/database"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// CreateAdmission files an enrollment application in the caller's school
func CreateAdmission(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		FirstName   string     `json:"first_name" validate:"required"`
		LastName    string     `json:"last_name"`
		Grade       string     `json:"grade"`
		Section     string     `json:"section"`
		BirthDate   *time.Time `json:"birth_date"`
		ParentName  string     `json:"parent_name"`
		ParentPhone string     `json:"parent_phone"`
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

	adm := model.Admission{
		SchoolID:    schoolID,
		SchoolName:  lookupSchoolName(schoolID),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Grade:       req.Grade,
		Section:     req.Section,
		BirthDate:   req.BirthDate,
		ParentName:  req.ParentName,
		ParentPhone: req.ParentPhone,
		Status:      model.AdmissionStatusPending,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&adm); result.Error != nil {
		log.Error("Failed to create admission", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create admission"})
	}

	prometheus.RecordResourceOperation("admission", "create")
	return c.JSON(http.StatusCreated, adm)
}

// ListAdmissions returns applications in the caller's school
func ListAdmissions(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.Admission{}))
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	q.Count(&total)

	var admissions []model.Admission
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&admissions); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list admissions"})
	}
	return paginated(c, "admissions", admissions, page, limit, total)
}

// GetAdmission returns one application, within the caller's scope
func GetAdmission(c echo.Context) error {
	scope := readScope(c)

	var adm model.Admission
	if result := scope.Apply(database.GetDB()).First(&adm, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admission not found"})
	}
	return c.JSON(http.StatusOK, adm)
}

// ApproveAdmission approves an application and enrolls the student. The
// operation is idempotent: approving an already-approved admission returns
// the same student instead of enrolling twice.
func ApproveAdmission(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	admissionID := uint(atoiDefault(c.Param("id"), 0))
	if admissionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid admission id"})
	}

	svc := admission.NewService(admission.NewGormStore(database.GetDB(), scope))
	defer prometheus.TrackDBOperation("transaction")(time.Now())
	student, err := svc.Approve(admissionID)
	switch {
	case errors.Is(err, admission.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admission not found"})
	case err != nil:
		log.Error("Failed to approve admission", zap.Uint("admission_id", admissionID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to approve admission"})
	}

	prometheus.RecordResourceOperation("admission", "approve")
	var count int64
	database.GetDB().Model(&model.Student{}).Where("school_id = ?", student.SchoolID).Count(&count)
	prometheus.UpdateStudentsPerSchool(student.SchoolID, student.SchoolName, int(count))
	log.Info("Admission approved",
		zap.Uint("admission_id", admissionID),
		zap.Uint("student_id", student.ID),
		zap.String("student_code", student.StudentCode))
	return c.JSON(http.StatusOK, echo.Map{"message": "admission approved", "student": student})
}

// RejectAdmission marks an application rejected. Already-approved
// applications cannot be rejected.
func RejectAdmission(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var adm model.Admission
	if result := scope.Apply(database.GetDB()).First(&adm, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admission not found"})
	}
	if adm.Status == model.AdmissionStatusApproved {
		return c.JSON(http.StatusConflict, echo.Map{"error": "admission already approved"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&adm).Update("status", model.AdmissionStatusRejected).Error; err != nil {
		log.Error("Failed to reject admission", zap.Uint("admission_id", adm.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reject admission"})
	}

	prometheus.RecordResourceOperation("admission", "reject")
	return c.JSON(http.StatusOK, echo.Map{"message": "admission rejected"})
}
