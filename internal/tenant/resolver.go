// Package tenant implements school scoping: resolving which school a
// principal belongs to and narrowing every read and write to that school.
package tenant

import (
	"school-service/internal/model"
	"school-service/internal/role"
)

// Principal is the authenticated caller as seen by scoping decisions
type Principal struct {
	UserID   uint
	Role     role.Role
	SchoolID string // cached id carried by the token or user row; may be empty
}

// Directory provides the relation lookups the resolver walks.
// Implementations return (nil, nil) when no row matches; real lookup
// failures are also treated as non-matches by the resolver, so resolution
// degrades to "not found" instead of propagating errors.
type Directory interface {
	SchoolOwnedBy(userID uint) (*model.School, error)
	TeacherByUser(userID uint) (*model.Teacher, error)
	DepartmentByID(id uint) (*model.Department, error)
	StudentByUser(userID uint) (*model.Student, error)
	ParentByUser(userID uint) (*model.Parent, error)
	// FirstStudentOfParent returns the linked student with the lowest id.
	FirstStudentOfParent(parentID uint) (*model.Student, error)
	// StudentsOfParent returns every student linked to the parent, lowest
	// id first.
	StudentsOfParent(parentID uint) ([]*model.Student, error)
}

// Resolver determines a principal's school by walking a fixed priority
// chain of relations. The ordering is business policy:
// cached field, owned school, teacher profile, student profile, parent
// profile — first match wins.
type Resolver struct {
	dir Directory
}

// NewResolver returns a resolver backed by the given directory
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the principal's school id, or ok=false when none is
// reachable. It is a pure read; callers own any caching of the result.
func (r *Resolver) Resolve(p Principal) (string, bool) {
	// 1. cached field on the principal
	if p.SchoolID != "" {
		return p.SchoolID, true
	}

	// 2. principal is the designated admin account of a school
	if school, err := r.dir.SchoolOwnedBy(p.UserID); err == nil && school != nil {
		return school.ID, true
	}

	// 3. teacher profile: own cached id, else via department
	if teacher, err := r.dir.TeacherByUser(p.UserID); err == nil && teacher != nil {
		if teacher.SchoolID != "" {
			return teacher.SchoolID, true
		}
		if teacher.DepartmentID != nil {
			if dept, err := r.dir.DepartmentByID(*teacher.DepartmentID); err == nil && dept != nil && dept.SchoolID != "" {
				return dept.SchoolID, true
			}
		}
	}

	// 4. student profile
	if student, err := r.dir.StudentByUser(p.UserID); err == nil && student != nil && student.SchoolID != "" {
		return student.SchoolID, true
	}

	// 5. parent profile: own cached id, else first linked student
	if parent, err := r.dir.ParentByUser(p.UserID); err == nil && parent != nil {
		if parent.SchoolID != "" {
			return parent.SchoolID, true
		}
		if student, err := r.dir.FirstStudentOfParent(parent.ID); err == nil && student != nil && student.SchoolID != "" {
			return student.SchoolID, true
		}
	}

	return "", false
}

// FamilyStudentIDs returns the students the principal is personally linked
// to: their own student profile plus any children through their parent
// profile. School scoping bounds what a caller's school can see; this bounds
// a family member to their own family within it. Lookup failures degrade to
// a smaller set, never a wider one.
func (r *Resolver) FamilyStudentIDs(p Principal) []uint {
	var ids []uint
	seen := map[uint]struct{}{}
	add := func(id uint) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if student, err := r.dir.StudentByUser(p.UserID); err == nil && student != nil {
		add(student.ID)
	}
	if parent, err := r.dir.ParentByUser(p.UserID); err == nil && parent != nil {
		if students, err := r.dir.StudentsOfParent(parent.ID); err == nil {
			for _, s := range students {
				add(s.ID)
			}
		}
	}
	return ids
}
