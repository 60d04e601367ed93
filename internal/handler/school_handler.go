package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-service/internal/model"
	"school-service/internal/tenant"
	"school-service/pkg/database"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// CreateSchool registers a new school. The id is derived from the three
// source fields; the request may not pick its own.
func CreateSchool(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		StateCode          string `json:"state_code" validate:"required"`
		DistrictCode       string `json:"district_code" validate:"required"`
		RegistrationNumber string `json:"registration_number" validate:"required"`
		Name               string `json:"name" validate:"required"`
		Address            string `json:"address"`
		Phone              string `json:"phone"`
		AdminUserID        *uint  `json:"admin_user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	school := model.School{
		StateCode:          req.StateCode,
		DistrictCode:       req.DistrictCode,
		RegistrationNumber: req.RegistrationNumber,
		Name:               req.Name,
		Address:            req.Address,
		Phone:              req.Phone,
		AdminUserID:        req.AdminUserID,
		Active:             true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&school); result.Error != nil {
		log.Error("Failed to create school", zap.Error(result.Error))
		return createFailure(c, result.Error, "school already exists", "school")
	}

	// The admin account's cached school id is now known
	if school.AdminUserID != nil {
		database.GetDB().Model(&model.User{}).Where("id = ?", *school.AdminUserID).
			Updates(map[string]interface{}{"school_id": school.ID, "school_name": school.Name})
	}

	prometheus.RecordResourceOperation("school", "create")
	prometheus.ActiveSchoolsGauge.Inc()
	log.Info("School created", zap.String("school_id", school.ID), zap.String("name", school.Name))
	return c.JSON(http.StatusCreated, school)
}

// ListSchools returns schools visible to the caller. Non-super-admins only
// ever see their own school.
func ListSchools(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := database.GetDB().Model(&model.School{})
	switch scope.Kind {
	case tenant.ScopeAll:
	case tenant.ScopeSchool:
		q = q.Where("id = ?", scope.SchoolID)
	default:
		q = q.Where("1 = 0")
	}

	var total int64
	q.Count(&total)

	var schools []model.School
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&schools); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list schools"})
	}
	return paginated(c, "schools", schools, page, limit, total)
}

// GetSchool returns one school by id, within the caller's scope
func GetSchool(c echo.Context) error {
	scope := readScope(c)
	id := c.Param("id")
	if !scope.AllowsSchool(id) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "school not found"})
	}

	var school model.School
	if result := database.GetDB().Where("id = ?", id).First(&school); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "school not found"})
	}
	return c.JSON(http.StatusOK, school)
}

// UpdateSchool edits a school's mutable fields. The state code, district
// code and registration number are frozen because the id is derived from
// them.
func UpdateSchool(c echo.Context) error {
	log := logger.FromEcho(c)

	var school model.School
	if result := database.GetDB().Where("id = ?", c.Param("id")).First(&school); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "school not found"})
	}

	var req struct {
		StateCode          *string `json:"state_code"`
		DistrictCode       *string `json:"district_code"`
		RegistrationNumber *string `json:"registration_number"`
		Name               *string `json:"name"`
		Address            *string `json:"address"`
		Phone              *string `json:"phone"`
		AdminUserID        *uint   `json:"admin_user_id"`
		Active             *bool   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if (req.StateCode != nil && *req.StateCode != school.StateCode) ||
		(req.DistrictCode != nil && *req.DistrictCode != school.DistrictCode) ||
		(req.RegistrationNumber != nil && *req.RegistrationNumber != school.RegistrationNumber) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": "state_code, district_code and registration_number cannot be changed",
		})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.AdminUserID != nil {
		updates["admin_user_id"] = *req.AdminUserID
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) > 0 {
		defer prometheus.TrackDBOperation("update")(time.Now())
		if err := database.GetDB().Model(&school).Updates(updates).Error; err != nil {
			log.Error("Failed to update school", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update school"})
		}
	}

	prometheus.RecordResourceOperation("school", "update")
	return c.JSON(http.StatusOK, school)
}

// DeleteSchool soft-deletes a school
func DeleteSchool(c echo.Context) error {
	log := logger.FromEcho(c)

	var school model.School
	if result := database.GetDB().Where("id = ?", c.Param("id")).First(&school); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "school not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&school).Error; err != nil {
		log.Error("Failed to delete school", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete school"})
	}

	prometheus.RecordResourceOperation("school", "delete")
	prometheus.ActiveSchoolsGauge.Dec()
	log.Info("School deleted", zap.String("school_id", school.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "school deleted"})
}
