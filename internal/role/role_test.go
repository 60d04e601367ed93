package role

import "testing"

func TestParseAcceptsEveryDefinedRole(t *testing.T) {
	for _, r := range All() {
		parsed, err := Parse(string(r))
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", r, err)
		}
		if parsed != r {
			t.Fatalf("Parse(%q) = %q", r, parsed)
		}
	}
}

func TestParseRejectsUnknownRole(t *testing.T) {
	for _, s := range []string{"", "admin", "SUPER_ADMIN", "super-admin", "root"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) accepted an unknown role", s)
		}
	}
}

func TestOnlySuperAdminBypassesTenantScope(t *testing.T) {
	for _, r := range All() {
		want := r == SuperAdmin
		if got := r.BypassesTenantScope(); got != want {
			t.Fatalf("%s.BypassesTenantScope() = %v, want %v", r, got, want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !Teacher.IsValid() {
		t.Fatal("Teacher should be valid")
	}
	if Role("janitor").IsValid() {
		t.Fatal("undefined role should be invalid")
	}
}
