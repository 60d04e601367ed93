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

// CreateEvent adds a calendar entry to the caller's school
func CreateEvent(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Title       string    `json:"title" validate:"required"`
		Description string    `json:"description"`
		Location    string    `json:"location"`
		StartsAt    time.Time `json:"starts_at" validate:"required"`
		EndsAt      time.Time `json:"ends_at"`
		SchoolID    string    `json:"school_id,omitempty"`
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

	event := model.Event{
		SchoolID:    schoolID,
		SchoolName:  lookupSchoolName(schoolID),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&event); result.Error != nil {
		log.Error("Failed to create event", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}

	prometheus.RecordResourceOperation("event", "create")
	return c.JSON(http.StatusCreated, event)
}

// ListEvents returns calendar entries in the caller's school, soonest first
func ListEvents(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.Event{}))
	if from := c.QueryParam("from"); from != "" {
		q = q.Where("starts_at >= ?", from)
	}

	var total int64
	q.Count(&total)

	var events []model.Event
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("starts_at asc").Offset(offset).Limit(limit).Find(&events); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list events"})
	}
	return paginated(c, "events", events, page, limit, total)
}

// GetEvent returns one calendar entry, within the caller's scope
func GetEvent(c echo.Context) error {
	scope := readScope(c)

	var event model.Event
	if result := scope.Apply(database.GetDB()).First(&event, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusOK, event)
}

// UpdateEvent edits a calendar entry
func UpdateEvent(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var event model.Event
	if result := scope.Apply(database.GetDB()).First(&event, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Location    *string    `json:"location"`
		StartsAt    *time.Time `json:"starts_at"`
		EndsAt      *time.Time `json:"ends_at"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = *req.EndsAt
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&event).Error; err != nil {
		log.Error("Failed to update event", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update event"})
	}

	prometheus.RecordResourceOperation("event", "update")
	return c.JSON(http.StatusOK, event)
}

// DeleteEvent soft-deletes a calendar entry
func DeleteEvent(c echo.Context) error {
	scope := readScope(c)

	var event model.Event
	if result := scope.Apply(database.GetDB()).First(&event, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	if err := database.GetDB().Delete(&event).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete event"})
	}

	prometheus.RecordResourceOperation("event", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted"})
}
