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

// CreateParent creates a guardian profile in the caller's school
func CreateParent(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		UserID     uint   `json:"user_id" validate:"required"`
		FirstName  string `json:"first_name" validate:"required"`
		LastName   string `json:"last_name"`
		Phone      string `json:"phone"`
		Occupation string `json:"occupation"`
		SchoolID   string `json:"school_id,omitempty"`
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

	parent := model.Parent{
		UserID:     req.UserID,
		SchoolID:   schoolID,
		SchoolName: lookupSchoolName(schoolID),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Occupation: req.Occupation,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&parent); result.Error != nil {
		log.Error("Failed to create parent", zap.Error(result.Error))
		return createFailure(c, result.Error, "parent profile already exists for this user", "parent")
	}

	prometheus.RecordResourceOperation("parent", "create")
	return c.JSON(http.StatusCreated, parent)
}

// ListParents returns guardian profiles in the caller's school
func ListParents(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.Parent{}))

	var total int64
	q.Count(&total)

	var parents []model.Parent
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&parents); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list parents"})
	}
	return paginated(c, "parents", parents, page, limit, total)
}

// GetParent returns one guardian profile, within the caller's scope
func GetParent(c echo.Context) error {
	scope := readScope(c)

	var parent model.Parent
	if result := scope.Apply(database.GetDB()).First(&parent, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "parent not found"})
	}
	return c.JSON(http.StatusOK, parent)
}

// UpdateParent edits a guardian profile's mutable fields
func UpdateParent(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var parent model.Parent
	if result := scope.Apply(database.GetDB()).First(&parent, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "parent not found"})
	}

	var req struct {
		FirstName  *string `json:"first_name"`
		LastName   *string `json:"last_name"`
		Phone      *string `json:"phone"`
		Occupation *string `json:"occupation"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.FirstName != nil {
		parent.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		parent.LastName = *req.LastName
	}
	if req.Phone != nil {
		parent.Phone = *req.Phone
	}
	if req.Occupation != nil {
		parent.Occupation = *req.Occupation
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&parent).Error; err != nil {
		log.Error("Failed to update parent", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update parent"})
	}

	prometheus.RecordResourceOperation("parent", "update")
	return c.JSON(http.StatusOK, parent)
}

// DeleteParent soft-deletes a guardian profile
func DeleteParent(c echo.Context) error {
	scope := readScope(c)

	var parent model.Parent
	if result := scope.Apply(database.GetDB()).First(&parent, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "parent not found"})
	}
	if err := database.GetDB().Delete(&parent).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete parent"})
	}

	prometheus.RecordResourceOperation("parent", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "parent deleted"})
}
