package tenant

import (
	"errors"
	"testing"

	"school-service/internal/model"
	"school-service/internal/role"
)

type memDirectory struct {
	schoolsByAdmin  map[uint]*model.School
	teachersByUser  map[uint]*model.Teacher
	departmentsByID map[uint]*model.Department
	studentsByUser  map[uint]*model.Student
	parentsByUser   map[uint]*model.Parent
	studentsByPar   map[uint][]*model.Student

	failTeachers bool
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		schoolsByAdmin:  map[uint]*model.School{},
		teachersByUser:  map[uint]*model.Teacher{},
		departmentsByID: map[uint]*model.Department{},
		studentsByUser:  map[uint]*model.Student{},
		parentsByUser:   map[uint]*model.Parent{},
		studentsByPar:   map[uint][]*model.Student{},
	}
}

func (m *memDirectory) SchoolOwnedBy(userID uint) (*model.School, error) {
	return m.schoolsByAdmin[userID], nil
}

func (m *memDirectory) TeacherByUser(userID uint) (*model.Teacher, error) {
	if m.failTeachers {
		return nil, errors.New("lookup failed")
	}
	return m.teachersByUser[userID], nil
}

func (m *memDirectory) DepartmentByID(id uint) (*model.Department, error) {
	return m.departmentsByID[id], nil
}

func (m *memDirectory) StudentByUser(userID uint) (*model.Student, error) {
	return m.studentsByUser[userID], nil
}

func (m *memDirectory) ParentByUser(userID uint) (*model.Parent, error) {
	return m.parentsByUser[userID], nil
}

func (m *memDirectory) FirstStudentOfParent(parentID uint) (*model.Student, error) {
	students := m.studentsByPar[parentID]
	if len(students) == 0 {
		return nil, nil
	}
	first := students[0]
	for _, s := range students[1:] {
		if s.ID < first.ID {
			first = s
		}
	}
	return first, nil
}

func (m *memDirectory) StudentsOfParent(parentID uint) ([]*model.Student, error) {
	return m.studentsByPar[parentID], nil
}

func uintPtr(v uint) *uint { return &v }

func TestResolveCachedFieldWins(t *testing.T) {
	dir := newMemDirectory()
	// Even with an owned school present, the cached field takes precedence
	dir.schoolsByAdmin[1] = &model.School{ID: "KA-BLR-002"}
	r := NewResolver(dir)

	id, ok := r.Resolve(Principal{UserID: 1, Role: role.ManagementAdmin, SchoolID: "MH-PUN-001"})
	if !ok || id != "MH-PUN-001" {
		t.Fatalf("expected cached MH-PUN-001, got %q ok=%v", id, ok)
	}
}

func TestResolveOwnedSchool(t *testing.T) {
	dir := newMemDirectory()
	dir.schoolsByAdmin[7] = &model.School{ID: "KA-BLR-002"}
	// A teacher profile also exists; the owned school must win
	dir.teachersByUser[7] = &model.Teacher{ID: 1, UserID: 7, SchoolID: "TN-CHN-009"}
	r := NewResolver(dir)

	id, ok := r.Resolve(Principal{UserID: 7, Role: role.ManagementAdmin})
	if !ok || id != "KA-BLR-002" {
		t.Fatalf("expected owned school KA-BLR-002, got %q ok=%v", id, ok)
	}
}

func TestResolveTeacherCachedID(t *testing.T) {
	dir := newMemDirectory()
	dir.teachersByUser[3] = &model.Teacher{ID: 1, UserID: 3, SchoolID: "TN-CHN-009"}
	r := NewResolver(dir)

	id, ok := r.Resolve(Principal{UserID: 3, Role: role.Teacher})
	if !ok || id != "TN-CHN-009" {
		t.Fatalf("expected TN-CHN-009, got %q ok=%v", id, ok)
	}
}

func TestResolveTeacherViaDepartment(t *testing.T) {
	dir := newMemDirectory()
	dir.teachersByUser[3] = &model.Teacher{ID: 1, UserID: 3, DepartmentID: uintPtr(10)}
	dir.departmentsByID[10] = &model.Department{ID: 10, SchoolID: "MH-PUN-001"}
	r := NewResolver(dir)

	id, ok := r.Resolve(Principal{UserID: 3, Role: role.Teacher})
	if !ok || id != "MH-PUN-001" {
		t.Fatalf("expected department school MH-PUN-001, got %q ok=%v", id, ok)
	}
}

func TestResolveStudent(t *testing.T) {
	dir := newMemDirectory()
	dir.studentsByUser[4] = &model.Student{ID: 1, SchoolID: "MH-PUN-001"}
	r := NewResolver(dir)

	id, ok := r.Resolve(Principal{UserID: 4, Role: role.StudentParent})
	if !ok || id != "MH-PUN-001" {
		t.Fatalf("expected MH-PUN-001, got %q ok=%v", id, ok)
	}
}

func TestResolveParentCachedID(t *testing.T) {
	dir := newMemDirectory()
	dir.parentsByUser[5] = &model.Parent{ID: 2, UserID: 5, SchoolID: "KA-BLR-002"}
	r := NewResolver(dir)

	id, ok := r.Resolve(Principal{UserID: 5, Role: role.StudentParent})
	if !ok || id != "KA-BLR-002" {
		t.Fatalf("expected KA-BLR-002, got %q ok=%v", id, ok)
	}
}

func TestResolveParentFirstLinkedStudent(t *testing.T) {
	dir := newMemDirectory()
	dir.parentsByUser[5] = &model.Parent{ID: 2, UserID: 5}
	dir.studentsByPar[2] = []*model.Student{
		{ID: 30, SchoolID: "TN-CHN-009"},
		{ID: 12, SchoolID: "MH-PUN-001"},
	}
	r := NewResolver(dir)

	// Lowest-id student decides; pinned so the tie-break stays deterministic
	id, ok := r.Resolve(Principal{UserID: 5, Role: role.StudentParent})
	if !ok || id != "MH-PUN-001" {
		t.Fatalf("expected lowest-id student's school MH-PUN-001, got %q ok=%v", id, ok)
	}
}

func TestResolveNotFound(t *testing.T) {
	r := NewResolver(newMemDirectory())

	id, ok := r.Resolve(Principal{UserID: 99, Role: role.Financial})
	if ok || id != "" {
		t.Fatalf("expected not found, got %q ok=%v", id, ok)
	}
}

func TestFamilyStudentIDsOnlyOwnChildren(t *testing.T) {
	dir := newMemDirectory()
	// Two families in the same school
	dir.parentsByUser[5] = &model.Parent{ID: 2, UserID: 5, SchoolID: "MH-PUN-001"}
	dir.studentsByPar[2] = []*model.Student{
		{ID: 1, ParentID: uintPtr(2), SchoolID: "MH-PUN-001"},
	}
	dir.parentsByUser[6] = &model.Parent{ID: 3, UserID: 6, SchoolID: "MH-PUN-001"}
	dir.studentsByPar[3] = []*model.Student{
		{ID: 2, ParentID: uintPtr(3), SchoolID: "MH-PUN-001"},
	}
	r := NewResolver(dir)

	ids := r.FamilyStudentIDs(Principal{UserID: 5, Role: role.StudentParent})
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("parent 5 should see only student 1, got %v", ids)
	}
	for _, id := range ids {
		if id == 2 {
			t.Fatal("parent 5 can see the other family's student")
		}
	}
}

func TestFamilyStudentIDsOwnProfilePlusChildren(t *testing.T) {
	dir := newMemDirectory()
	// An older student with their own login who is also listed as a child
	dir.studentsByUser[8] = &model.Student{ID: 4, SchoolID: "MH-PUN-001"}
	dir.parentsByUser[8] = &model.Parent{ID: 9, UserID: 8}
	dir.studentsByPar[9] = []*model.Student{
		{ID: 4, SchoolID: "MH-PUN-001"},
		{ID: 5, SchoolID: "MH-PUN-001"},
	}
	r := NewResolver(dir)

	ids := r.FamilyStudentIDs(Principal{UserID: 8, Role: role.StudentParent})
	if len(ids) != 2 {
		t.Fatalf("expected deduplicated {4, 5}, got %v", ids)
	}
}

func TestFamilyStudentIDsEmptyForUnlinkedUser(t *testing.T) {
	r := NewResolver(newMemDirectory())

	if ids := r.FamilyStudentIDs(Principal{UserID: 42, Role: role.StudentParent}); len(ids) != 0 {
		t.Fatalf("unlinked user should have no family students, got %v", ids)
	}
}

func TestResolveLookupFailureFallsThrough(t *testing.T) {
	dir := newMemDirectory()
	dir.failTeachers = true
	dir.studentsByUser[6] = &model.Student{ID: 1, SchoolID: "MH-PUN-001"}
	r := NewResolver(dir)

	// A failing teacher lookup is a non-match, not an error
	id, ok := r.Resolve(Principal{UserID: 6, Role: role.StudentParent})
	if !ok || id != "MH-PUN-001" {
		t.Fatalf("expected fall-through to student, got %q ok=%v", id, ok)
	}
}
