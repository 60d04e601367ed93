package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-service/internal/model"
	"school-service/internal/tenant"
	"school-service/pkg/database"
	"school-service/pkg/jwtutil"
	"school-service/pkg/logger"
	"school-service/prometheus"
)

// ChatTeacherStudent relays messages between a teacher and a student
func ChatTeacherStudent(c echo.Context) error {
	return serveChat(c, "teacher-student")
}

// ChatTeacherParent relays messages between a teacher and a parent
func ChatTeacherParent(c echo.Context) error {
	return serveChat(c, "teacher-parent")
}

// serveChat authenticates the websocket request and hands the connection to
// the hub. Browsers cannot set headers on websocket dials, so the token may
// arrive as a query param instead. Room names are namespaced by school so
// the same room name in two schools never crosses.
func serveChat(c echo.Context, channel string) error {
	log := logger.FromEcho(c)

	token := c.QueryParam("token")
	if token == "" {
		header := c.Request().Header.Get("Authorization")
		parts := strings.Split(header, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		prometheus.RecordAuthError("missing_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	claims, err := jwtutil.ValidateToken(token)
	if err != nil || claims.TokenType != jwtutil.TokenTypeAccess {
		prometheus.RecordAuthError("invalid_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	schoolID := claims.SchoolID
	if schoolID == "" {
		var user model.User
		if result := database.GetDB().First(&user, claims.UserID); result.Error == nil {
			p := tenant.Principal{UserID: user.ID, Role: user.Role}
			schoolID, _ = resolver.Resolve(p)
		}
	}
	if schoolID == "" {
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no school associated with account"})
	}

	room := fmt.Sprintf("%s/%s/%s", schoolID, channel, c.Param("room"))

	prometheus.ChatConnectionsGauge.Inc()
	defer prometheus.ChatConnectionsGauge.Dec()
	log.Info("Chat connection opened",
		zap.String("room", room),
		zap.Uint("user_id", claims.UserID))

	err = chatHub.Serve(c.Response(), c.Request(), room, claims.UserID, schoolID)
	if err != nil {
		log.Warn("Chat upgrade failed", zap.String("room", room), zap.Error(err))
	}
	return nil
}

// ListChatMessages returns the persisted history of a room, oldest first
func ListChatMessages(c echo.Context) error {
	scope := readScope(c)
	if scope.Kind == tenant.ScopeNone {
		return c.JSON(http.StatusOK, echo.Map{"messages": []model.ChatMessage{}})
	}

	channel := c.QueryParam("channel")
	if channel == "" {
		channel = "teacher-student"
	}
	var room string
	if scope.Kind == tenant.ScopeSchool {
		room = fmt.Sprintf("%s/%s/%s", scope.SchoolID, channel, c.Param("room"))
	}

	q := database.GetDB().Model(&model.ChatMessage{})
	if room != "" {
		q = q.Where("room = ?", room)
	} else {
		// super admin: match any school's copy of the room
		q = q.Where("room LIKE ?", "%/"+channel+"/"+c.Param("room"))
	}

	var messages []model.ChatMessage
	defer prometheus.TrackDBOperation("query")(time.Now())
	if result := q.Order("id asc").Limit(200).Find(&messages); result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list messages"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": messages})
}
