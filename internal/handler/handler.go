// Package handler contains the HTTP handlers. Every tenant-owned resource
// goes through the same two gates: reads are narrowed by the caller's
// scope decision, creates have their school id forced server-side.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"school-service/internal/backfill"
	"school-service/internal/middleware"
	"school-service/internal/role"
	"school-service/internal/tenant"
	"school-service/internal/ws"
	"school-service/prometheus"
)

var (
	resolver       *tenant.Resolver
	chatHub        *ws.Hub
	backfillRunner *backfill.Runner
	uploadDir      string
)

// Init wires the handlers' dependencies once at startup
func Init(r *tenant.Resolver, hub *ws.Hub, runner *backfill.Runner, uploads string) {
	resolver = r
	chatHub = hub
	backfillRunner = runner
	uploadDir = uploads
}

// principal rebuilds the caller's identity from the echo context
func principal(c echo.Context) tenant.Principal {
	return middleware.PrincipalFromEcho(c)
}

// readScope decides how the caller's reads are narrowed
func readScope(c echo.Context) tenant.Scope {
	s := resolver.ForRead(principal(c))
	if s.Kind == tenant.ScopeNone {
		prometheus.ScopeEmptyCounter.Inc()
	}
	return s
}

// createSchoolID decides which school a new record belongs to, overriding
// whatever the client sent. Returns a ready-to-send error response when the
// caller has no school.
func createSchoolID(c echo.Context, requested string) (string, error) {
	id, err := resolver.ForCreate(principal(c), requested)
	if err == tenant.ErrNoSchool {
		prometheus.TenantContextMissingCounter.Inc()
		return "", echo.NewHTTPError(http.StatusForbidden, "no school associated with account")
	}
	return id, err
}

// createFailure maps a create error onto a response: unique-key violations
// are the caller's conflict, anything else is a server failure and must not
// masquerade as one
func createFailure(c echo.Context, err error, conflictMsg, resource string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return c.JSON(http.StatusConflict, echo.Map{"error": conflictMsg})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create " + resource})
}

// familyNarrow restricts q to the caller's own students when the caller is
// a student_parent. column names the student id column on the queried table.
// School scoping alone would let any family read every family's rows in
// their school; this narrows to the caller's children (or their own student
// profile). A family with no linked students sees nothing.
func familyNarrow(c echo.Context, q *gorm.DB, column string) *gorm.DB {
	p := principal(c)
	if p.Role != role.StudentParent {
		return q
	}
	ids := resolver.FamilyStudentIDs(p)
	if len(ids) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where(column+" IN ?", ids)
}

// pagination reads page/limit query params with the service defaults
func pagination(c echo.Context) (page, limit, offset int) {
	page = atoiDefault(c.QueryParam("page"), 1)
	if page <= 0 {
		page = 1
	}
	limit = atoiDefault(c.QueryParam("limit"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func paginated(c echo.Context, key string, items interface{}, page, limit int, total int64) error {
	return c.JSON(http.StatusOK, echo.Map{
		key: items,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}
