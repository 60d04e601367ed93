package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"school-service/internal/model"
	"school-service/internal/role"
	"school-service/internal/tenant"
	"school-service/pkg/database"
	"school-service/pkg/jwtutil"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// Login authenticates a user and issues access + refresh tokens. The
// optional role field is a routing hint: it is validated against the stored
// role but never grants anything by itself.
func Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("Login for unknown email", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if req.Role != "" && req.Role != user.Role.String() {
		log.Warn("Login role hint mismatch",
			zap.String("email", req.Email),
			zap.String("hint", req.Role),
			zap.String("actual", user.Role.String()))
		prometheus.RecordAuthError("role_hint_mismatch")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account does not have the requested role"})
	}

	// Lazily populate the cached school id on the user row
	schoolID, schoolName := user.SchoolID, user.SchoolName
	if schoolID == "" {
		if id, ok := resolver.Resolve(tenant.Principal{UserID: user.ID, Role: user.Role}); ok {
			schoolID = id
			schoolName = lookupSchoolName(id)
			if err := database.GetDB().Model(&user).
				Updates(map[string]interface{}{"school_id": schoolID, "school_name": schoolName}).Error; err != nil {
				log.Warn("Failed to cache school id on user", zap.Uint("user_id", user.ID), zap.Error(err))
			}
		}
	}

	access, err := jwtutil.GenerateAccessToken(user.Email, user.ID, user.Role.String(), schoolID, schoolName)
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	refresh, err := jwtutil.GenerateRefreshToken(user.Email, user.ID, user.Role.String(), schoolID, schoolName)
	if err != nil {
		log.Error("Failed to generate refresh token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.ActiveTokensGauge.Inc()
	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", user.Role.String()),
		zap.String("school_id", schoolID))

	return c.JSON(http.StatusOK, echo.Map{
		"access":  access,
		"refresh": refresh,
		"user": echo.Map{
			"id":          user.ID,
			"email":       user.Email,
			"full_name":   user.FullName,
			"role":        user.Role,
			"school_id":   schoolID,
			"school_name": schoolName,
		},
	})
}

// Register creates an account. Self-service registration is limited to the
// student_parent role; the first super_admin may bootstrap itself while none
// exists. Staff accounts are created by admins through the users endpoints.
func Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		FullName string `json:"full_name"`
		Role     string `json:"role,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return err
	}

	r := role.StudentParent
	if req.Role != "" {
		parsed, err := role.Parse(req.Role)
		if err != nil {
			prometheus.RecordAuthError("unknown_role")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		r = parsed
	}
	switch r {
	case role.StudentParent:
		// always allowed
	case role.SuperAdmin:
		var count int64
		database.GetDB().Model(&model.User{}).Where("role = ?", role.SuperAdmin).Count(&count)
		if count > 0 {
			prometheus.RecordAuthError("bootstrap_closed")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	default:
		prometheus.RecordAuthError("self_service_role_forbidden")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var existing model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&existing); result.Error == nil {
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Email:    req.Email,
		Password: string(hashed),
		FullName: req.FullName,
		Role:     r,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email), zap.String("role", user.Role.String()))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    echo.Map{"id": user.ID, "email": user.Email, "role": user.Role},
	})
}

// Refresh exchanges a refresh token for a fresh access token
func Refresh(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Refresh string `json:"refresh" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	claims, err := jwtutil.ValidateRefreshToken(req.Refresh)
	if err != nil {
		log.Warn("Invalid refresh token", zap.Error(err))
		prometheus.RecordAuthError("invalid_refresh_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	access, err := jwtutil.GenerateAccessToken(claims.Email, claims.UserID, claims.Role, claims.SchoolID, claims.SchoolName)
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// GetProfile returns the caller's account
func GetProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the caller's password after checking the old one
func ChangePassword(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}
	if err := database.GetDB().Model(&user).Update("password", string(hashed)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// MetricsHandler serves the prometheus registry
func MetricsHandler(c echo.Context) error {
	h := prometheus.GetPrometheusHandler()
	h.ServeHTTP(c.Response(), c.Request())
	return nil
}

func lookupSchoolName(schoolID string) string {
	var school model.School
	if err := database.GetDB().Select("name").Where("id = ?", schoolID).First(&school).Error; err != nil {
		return ""
	}
	return school.Name
}
