package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"school-service/internal/model"
	"school-service/internal/role"
	"school-service/pkg/database"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// CreateUser lets an admin create a staff or parent account. The new
// account's cached school id is the creator's school, never a
// client-supplied one.
func CreateUser(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		FullName string `json:"full_name"`
		Role     string `json:"role" validate:"required"`
		SchoolID string `json:"school_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	r, err := role.Parse(req.Role)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if r == role.SuperAdmin && !principal(c).Role.BypassesTenantScope() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	schoolID, err := createSchoolID(c, req.SchoolID)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	user := model.User{
		Email:      req.Email,
		Password:   string(hashed),
		FullName:   req.FullName,
		Role:       r,
		SchoolID:   schoolID,
		SchoolName: lookupSchoolName(schoolID),
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return createFailure(c, result.Error, "email already registered", "user")
	}

	prometheus.RecordResourceOperation("user", "create")
	log.Info("User created by admin",
		zap.String("email", user.Email),
		zap.String("role", user.Role.String()),
		zap.String("school_id", user.SchoolID))
	return c.JSON(http.StatusCreated, user)
}

// ListUsers returns accounts in the caller's school
func ListUsers(c echo.Context) error {
	page, limit, offset := pagination(c)
	scope := readScope(c)

	q := scope.Apply(database.GetDB().Model(&model.User{}))
	if r := c.QueryParam("role"); r != "" {
		q = q.Where("role = ?", r)
	}

	var total int64
	q.Count(&total)

	var users []model.User
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id").Offset(offset).Limit(limit).Find(&users); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list users"})
	}
	return paginated(c, "users", users, page, limit, total)
}

// GetUser returns one account, within the caller's scope
func GetUser(c echo.Context) error {
	scope := readScope(c)

	var user model.User
	if result := scope.Apply(database.GetDB()).First(&user, c.Param("id")); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, user)
}
