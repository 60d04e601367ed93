package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-service/internal/role"
	"school-service/internal/tenant"
	"school-service/pkg/jwtutil"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID     = "user_id"
	ContextEmail      = "email"
	ContextRole       = "role"
	ContextSchoolID   = "school_id"
	ContextSchoolName = "school_name"
)

// AuthMiddleware validates the JWT access token from the Authorization
// header and stores the caller's identity in the echo context
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}
		if claims.TokenType != jwtutil.TokenTypeAccess {
			log.Warn("Refresh token used on API endpoint")
			prometheus.RecordAuthError("wrong_token_type")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		r, err := role.Parse(claims.Role)
		if err != nil {
			log.Warn("Token carries unknown role", zap.String("role", claims.Role))
			prometheus.RecordAuthError("unknown_role")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, r)
		c.Set(ContextSchoolID, claims.SchoolID)
		c.Set(ContextSchoolName, claims.SchoolName)

		return next(c)
	}
}

// RequireRole gates a route group to the given roles
func RequireRole(roles ...role.Role) echo.MiddlewareFunc {
	allowed := make(map[role.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r, ok := c.Get(ContextRole).(role.Role)
			if !ok {
				prometheus.RecordAuthError("missing_role")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if _, ok := allowed[r]; !ok {
				logger.FromEcho(c).Warn("Role not permitted for route",
					zap.String("role", r.String()),
					zap.String("path", c.Path()))
				prometheus.RecordAuthError("role_forbidden")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// PrincipalFromEcho rebuilds the tenant principal from context values set
// by AuthMiddleware
func PrincipalFromEcho(c echo.Context) tenant.Principal {
	p := tenant.Principal{}
	if id, ok := c.Get(ContextUserID).(uint); ok {
		p.UserID = id
	}
	if r, ok := c.Get(ContextRole).(role.Role); ok {
		p.Role = r
	}
	if sid, ok := c.Get(ContextSchoolID).(string); ok {
		p.SchoolID = sid
	}
	return p
}
