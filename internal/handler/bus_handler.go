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

// CreateBus registers a transport route in the caller's school. Stops
// inherit the bus's school id.
func CreateBus(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		RouteName   string `json:"route_name" validate:"required"`
		PlateNumber string `json:"plate_number" validate:"required"`
		DriverName  string `json:"driver_name"`
		DriverPhone string `json:"driver_phone"`
		Capacity    int    `json:"capacity"`
		SchoolID    string `json:"school_id,omitempty"`
		Stops       []struct {
			Name        string `json:"name" validate:"required"`
			DropOffTime string `json:"drop_off_time"`
			Sequence    int    `json:"sequence"`
		} `json:"stops"`
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

	bus := model.Bus{
		SchoolID:    schoolID,
		SchoolName:  lookupSchoolName(schoolID),
		RouteName:   req.RouteName,
		PlateNumber: req.PlateNumber,
		DriverName:  req.DriverName,
		DriverPhone: req.DriverPhone,
		Capacity:    req.Capacity,
	}
	for _, s := range req.Stops {
		bus.Stops = append(bus.Stops, model.BusStop{
			SchoolID:    schoolID,
			Name:        s.Name,
			DropOffTime: s.DropOffTime,
			Sequence:    s.Sequence,
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&bus); result.Error != nil {
		log.Error("Failed to create bus", zap.Error(result.Error))
		return createFailure(c, result.Error, "plate number already exists in this school", "bus")
	}

	prometheus.RecordResourceOperation("bus", "create")
	return c.JSON(http.StatusCreated, bus)
}

// ListBuses returns transport routes in the caller's school
func ListBuses(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.Bus{}))

	var total int64
	q.Count(&total)

	var buses []model.Bus
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := scope.Apply(database.GetDB().Model(&model.Bus{})).
		Preload("Stops").
		Order("id").Offset(offset).Limit(limit).Find(&buses); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list buses"})
	}
	return paginated(c, "buses", buses, page, limit, total)
}

// GetBus returns one route with its stops, within the caller's scope
func GetBus(c echo.Context) error {
	scope := readScope(c)

	var bus model.Bus
	if result := scope.Apply(database.GetDB()).Preload("Stops").First(&bus, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
	}
	return c.JSON(http.StatusOK, bus)
}

// UpdateBus edits a route's mutable fields
func UpdateBus(c echo.Context) error {
	log := logger.FromEcho(c)
	scope := readScope(c)

	var bus model.Bus
	if result := scope.Apply(database.GetDB()).First(&bus, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
	}

	var req struct {
		RouteName   *string `json:"route_name"`
		PlateNumber *string `json:"plate_number"`
		DriverName  *string `json:"driver_name"`
		DriverPhone *string `json:"driver_phone"`
		Capacity    *int    `json:"capacity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.RouteName != nil {
		bus.RouteName = *req.RouteName
	}
	if req.PlateNumber != nil {
		bus.PlateNumber = *req.PlateNumber
	}
	if req.DriverName != nil {
		bus.DriverName = *req.DriverName
	}
	if req.DriverPhone != nil {
		bus.DriverPhone = *req.DriverPhone
	}
	if req.Capacity != nil {
		bus.Capacity = *req.Capacity
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&bus).Error; err != nil {
		log.Error("Failed to update bus", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update bus"})
	}

	prometheus.RecordResourceOperation("bus", "update")
	return c.JSON(http.StatusOK, bus)
}

// DeleteBus soft-deletes a route
func DeleteBus(c echo.Context) error {
	scope := readScope(c)

	var bus model.Bus
	if result := scope.Apply(database.GetDB()).First(&bus, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
	}
	if err := database.GetDB().Delete(&bus).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete bus"})
	}

	prometheus.RecordResourceOperation("bus", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "bus deleted"})
}

// DropOffView returns a route's stops ordered by sequence, the shape the
// parent app renders as the drop-off timeline
func DropOffView(c echo.Context) error {
	scope := readScope(c)

	var bus model.Bus
	if result := scope.Apply(database.GetDB()).First(&bus, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
	}

	var stops []model.BusStop
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := database.GetDB().Where("bus_id = ?", bus.ID).
		Order("sequence asc, id asc").Find(&stops); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list stops"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"bus": echo.Map{
			"id":           bus.ID,
			"route_name":   bus.RouteName,
			"plate_number": bus.PlateNumber,
			"driver_name":  bus.DriverName,
			"driver_phone": bus.DriverPhone,
		},
		"stops": stops,
	})
}
