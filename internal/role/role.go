// Package role defines the closed set of principal roles. Every authorization
// decision switches exhaustively over this set instead of probing arbitrary
// role strings.
package role

import "fmt"

// Role is a principal's single role
type Role string

const (
	SuperAdmin      Role = "super_admin"
	ManagementAdmin Role = "management_admin"
	Teacher         Role = "teacher"
	StudentParent   Role = "student_parent"
	Financial       Role = "financial"
)

// All lists every valid role
func All() []Role {
	return []Role{SuperAdmin, ManagementAdmin, Teacher, StudentParent, Financial}
}

// Parse converts a wire string into a Role
func Parse(s string) (Role, error) {
	switch Role(s) {
	case SuperAdmin, ManagementAdmin, Teacher, StudentParent, Financial:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsValid reports whether r is one of the defined roles
func (r Role) IsValid() bool {
	_, err := Parse(string(r))
	return err == nil
}

// String implements fmt.Stringer
func (r Role) String() string {
	return string(r)
}

// BypassesTenantScope reports whether the role sees data across all schools
func (r Role) BypassesTenantScope() bool {
	return r == SuperAdmin
}
