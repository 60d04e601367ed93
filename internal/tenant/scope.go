package tenant

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNoSchool is returned when a non-super-admin caller has no resolvable
// school and attempts a write.
var ErrNoSchool = errors.New("no school associated with principal")

// ScopeKind classifies a read scope
type ScopeKind int

const (
	// ScopeAll leaves the queryset unscoped (super admin only)
	ScopeAll ScopeKind = iota
	// ScopeSchool intersects the queryset with one school id
	ScopeSchool
	// ScopeNone yields an empty result set; never an error, so a caller
	// without a school cannot learn what exists in other schools
	ScopeNone
)

// Scope is a per-request read-scoping decision. It is stateless and
// re-evaluated on every call; nothing is cached across requests.
type Scope struct {
	Kind     ScopeKind
	SchoolID string
}

// ForRead decides how list/retrieve queries are scoped for the principal
func (r *Resolver) ForRead(p Principal) Scope {
	if p.Role.BypassesTenantScope() {
		return Scope{Kind: ScopeAll}
	}
	if id, ok := r.Resolve(p); ok {
		return Scope{Kind: ScopeSchool, SchoolID: id}
	}
	return Scope{Kind: ScopeNone}
}

// ForCreate decides which school id a new record gets. A super admin may
// pick any school explicitly; everyone else gets their resolved school,
// overriding whatever the client sent, or ErrNoSchool when none resolves.
func (r *Resolver) ForCreate(p Principal, requested string) (string, error) {
	if p.Role.BypassesTenantScope() {
		return requested, nil
	}
	if id, ok := r.Resolve(p); ok {
		return id, nil
	}
	return "", ErrNoSchool
}

// AllowsSchool reports whether the scope permits reading the given school
// row itself. ScopeNone denies every school, including lookups by exact id,
// so a caller with no resolvable school cannot probe what exists.
func (s Scope) AllowsSchool(id string) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeSchool:
		return s.SchoolID == id
	default:
		return false
	}
}

// Apply narrows a gorm query according to the scope decision
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	switch s.Kind {
	case ScopeAll:
		return db
	case ScopeSchool:
		return db.Where("school_id = ?", s.SchoolID)
	default:
		return db.Where("1 = 0")
	}
}
