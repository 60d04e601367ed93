package tenant

import (
	"errors"
	"testing"

	"school-service/internal/model"
	"school-service/internal/role"
)

func TestForReadSuperAdminUnscoped(t *testing.T) {
	r := NewResolver(newMemDirectory())

	scope := r.ForRead(Principal{UserID: 1, Role: role.SuperAdmin})
	if scope.Kind != ScopeAll {
		t.Fatalf("expected ScopeAll for super admin, got %v", scope.Kind)
	}
}

func TestForReadScopedToResolvedSchool(t *testing.T) {
	dir := newMemDirectory()
	dir.teachersByUser[3] = &model.Teacher{ID: 1, UserID: 3, SchoolID: "MH-PUN-001"}
	r := NewResolver(dir)

	scope := r.ForRead(Principal{UserID: 3, Role: role.Teacher})
	if scope.Kind != ScopeSchool || scope.SchoolID != "MH-PUN-001" {
		t.Fatalf("expected school scope MH-PUN-001, got %+v", scope)
	}
}

func TestForReadUnresolvedIsEmptySet(t *testing.T) {
	r := NewResolver(newMemDirectory())

	// Never unscoped, never an error: an empty result set hides existence
	scope := r.ForRead(Principal{UserID: 42, Role: role.ManagementAdmin})
	if scope.Kind != ScopeNone {
		t.Fatalf("expected ScopeNone, got %v", scope.Kind)
	}
}

func TestAllowsSchool(t *testing.T) {
	if !(Scope{Kind: ScopeAll}).AllowsSchool("KA-BLR-002") {
		t.Fatal("ScopeAll must allow any school")
	}
	own := Scope{Kind: ScopeSchool, SchoolID: "MH-PUN-001"}
	if !own.AllowsSchool("MH-PUN-001") {
		t.Fatal("school scope must allow its own school")
	}
	if own.AllowsSchool("KA-BLR-002") {
		t.Fatal("school scope allowed a foreign school")
	}
}

func TestAllowsSchoolDeniesUnresolvedPrincipal(t *testing.T) {
	// ScopeNone carries an empty SchoolID; a naive non-empty comparison
	// would let an unscoped caller fetch any school by exact id
	none := Scope{Kind: ScopeNone}
	if none.AllowsSchool("KA-BLR-002") {
		t.Fatal("ScopeNone allowed a school lookup by id")
	}
	if none.AllowsSchool("") {
		t.Fatal("ScopeNone allowed the empty id")
	}
}

func TestForCreateOverridesClientSchool(t *testing.T) {
	dir := newMemDirectory()
	dir.teachersByUser[3] = &model.Teacher{ID: 1, UserID: 3, DepartmentID: uintPtr(10)}
	dir.departmentsByID[10] = &model.Department{ID: 10, SchoolID: "MH-PUN-001"}
	r := NewResolver(dir)

	// Client-sent school id is ignored; spoofing another school is impossible
	id, err := r.ForCreate(Principal{UserID: 3, Role: role.Teacher}, "KA-BLR-002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "MH-PUN-001" {
		t.Fatalf("expected resolved MH-PUN-001, got %q", id)
	}
}

func TestForCreateSuperAdminKeepsRequested(t *testing.T) {
	r := NewResolver(newMemDirectory())

	id, err := r.ForCreate(Principal{UserID: 1, Role: role.SuperAdmin}, "KA-BLR-002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "KA-BLR-002" {
		t.Fatalf("expected requested KA-BLR-002, got %q", id)
	}
}

func TestForCreateUnresolvedRefused(t *testing.T) {
	r := NewResolver(newMemDirectory())

	_, err := r.ForCreate(Principal{UserID: 42, Role: role.Financial}, "")
	if !errors.Is(err, ErrNoSchool) {
		t.Fatalf("expected ErrNoSchool, got %v", err)
	}
}
