package admission

import (
	"fmt"
	"testing"

	"school-service/internal/model"
)

type memStore struct {
	admissions map[uint]*model.Admission
	students   map[uint]*model.Student // keyed by student id
	nextID     uint

	failCreateWithDuplicate bool
	raceStudent             *model.Student // appears after the failed create
	staleSeqBy              int            // MaxStudentSeq lags behind by this much
	createCalls             int
}

func newMemStore() *memStore {
	return &memStore{
		admissions: map[uint]*model.Admission{},
		students:   map[uint]*model.Student{},
		nextID:     1,
	}
}

func (m *memStore) Admission(id uint) (*model.Admission, error) {
	return m.admissions[id], nil
}

func (m *memStore) StudentByAdmission(admissionID uint) (*model.Student, error) {
	for _, s := range m.students {
		if s.AdmissionID != nil && *s.AdmissionID == admissionID {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateStudent(s *model.Student) error {
	m.createCalls++
	if m.failCreateWithDuplicate {
		if m.raceStudent != nil {
			m.students[m.raceStudent.ID] = m.raceStudent
		}
		return ErrDuplicate
	}
	for _, existing := range m.students {
		if existing.AdmissionID != nil && s.AdmissionID != nil && *existing.AdmissionID == *s.AdmissionID {
			return ErrDuplicate
		}
		if existing.SchoolID == s.SchoolID && existing.StudentCode == s.StudentCode {
			return ErrDuplicate
		}
	}
	s.ID = m.nextID
	m.nextID++
	m.students[s.ID] = s
	return nil
}

func (m *memStore) SaveAdmission(a *model.Admission) error {
	m.admissions[a.ID] = a
	return nil
}

func (m *memStore) MaxStudentSeq(schoolID string) (int, error) {
	max := 0
	for _, s := range m.students {
		if s.SchoolID != schoolID {
			continue
		}
		var seq int
		if _, err := fmt.Sscanf(s.StudentCode, "STUD-%d", &seq); err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	if max >= m.staleSeqBy {
		max -= m.staleSeqBy
	}
	return max, nil
}

func pendingAdmission(id uint) *model.Admission {
	return &model.Admission{
		ID:         id,
		SchoolID:   "MH-PUN-001",
		SchoolName: "Sunrise Public School",
		FirstName:  "Asha",
		LastName:   "Kulkarni",
		Grade:      "5",
		Status:     model.AdmissionStatusPending,
	}
}

func TestApproveCreatesStudent(t *testing.T) {
	store := newMemStore()
	store.admissions[1] = pendingAdmission(1)
	svc := NewService(store)

	student, err := svc.Approve(1)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if student.SchoolID != "MH-PUN-001" {
		t.Fatalf("student school = %q, want MH-PUN-001", student.SchoolID)
	}
	if student.AdmissionID == nil || *student.AdmissionID != 1 {
		t.Fatalf("student not linked to admission: %+v", student)
	}

	adm := store.admissions[1]
	if adm.Status != model.AdmissionStatusApproved {
		t.Fatalf("admission status = %q, want Approved", adm.Status)
	}
	if adm.StudentID == nil || *adm.StudentID != student.ID {
		t.Fatalf("admission not linked to student: %+v", adm)
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.admissions[1] = pendingAdmission(1)
	svc := NewService(store)

	first, err := svc.Approve(1)
	if err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	second, err := svc.Approve(1)
	if err != nil {
		t.Fatalf("second approve failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("re-approval created a second student: %d vs %d", first.ID, second.ID)
	}
	if len(store.students) != 1 {
		t.Fatalf("expected exactly one student, got %d", len(store.students))
	}
}

func TestApproveRetryAfterPartialFailure(t *testing.T) {
	// The student exists but the admission update never landed
	store := newMemStore()
	store.admissions[1] = pendingAdmission(1)
	admID := uint(1)
	store.students[9] = &model.Student{
		ID:          9,
		AdmissionID: &admID,
		SchoolID:    "MH-PUN-001",
		StudentCode: "STUD-001",
	}
	svc := NewService(store)

	student, err := svc.Approve(1)
	if err != nil {
		t.Fatalf("retry approve failed: %v", err)
	}
	if student.ID != 9 {
		t.Fatalf("expected existing student 9, got %d", student.ID)
	}
	if store.createCalls != 0 {
		t.Fatalf("expected no create attempt, got %d", store.createCalls)
	}
	if store.admissions[1].Status != model.AdmissionStatusApproved {
		t.Fatalf("admission not approved after retry")
	}
}

func TestApproveAfterStudentRemoved(t *testing.T) {
	// Codes STUD-001 and STUD-003 exist; the STUD-002 student was removed.
	// A row count would say two students and mint STUD-003 again.
	store := newMemStore()
	store.students[1] = &model.Student{ID: 1, SchoolID: "MH-PUN-001", StudentCode: "STUD-001"}
	store.students[3] = &model.Student{ID: 3, SchoolID: "MH-PUN-001", StudentCode: "STUD-003"}
	store.nextID = 4
	store.admissions[1] = pendingAdmission(1)
	svc := NewService(store)

	student, err := svc.Approve(1)
	if err != nil {
		t.Fatalf("approve after removal failed: %v", err)
	}
	if student.StudentCode != "STUD-004" {
		t.Fatalf("student code = %q, want STUD-004", student.StudentCode)
	}
}

func TestApproveRetriesOnCodeCollision(t *testing.T) {
	// A concurrent enrollment lands between reading the sequence and
	// inserting; the first code collides and the next number is taken
	store := newMemStore()
	store.students[1] = &model.Student{ID: 1, SchoolID: "MH-PUN-001", StudentCode: "STUD-001"}
	store.nextID = 2
	store.staleSeqBy = 1
	store.admissions[1] = pendingAdmission(1)
	svc := NewService(store)

	student, err := svc.Approve(1)
	if err != nil {
		t.Fatalf("approve with code collision failed: %v", err)
	}
	if student.StudentCode != "STUD-002" {
		t.Fatalf("student code = %q, want STUD-002", student.StudentCode)
	}
	if store.createCalls != 2 {
		t.Fatalf("expected one retry, got %d create calls", store.createCalls)
	}
}

func TestApproveDuplicateRaceReusesStudent(t *testing.T) {
	// A concurrent approval of the same admission wins the insert; the
	// loser links the winner's student instead of failing
	store := newMemStore()
	store.admissions[1] = pendingAdmission(1)
	admID := uint(1)
	store.failCreateWithDuplicate = true
	store.raceStudent = &model.Student{
		ID:          9,
		AdmissionID: &admID,
		SchoolID:    "MH-PUN-001",
		StudentCode: "STUD-001",
	}
	svc := NewService(store)

	student, err := svc.Approve(1)
	if err != nil {
		t.Fatalf("approve after duplicate race failed: %v", err)
	}
	if student.ID != 9 {
		t.Fatalf("expected the winner's student 9, got %d", student.ID)
	}
	if adm := store.admissions[1]; adm.StudentID == nil || *adm.StudentID != 9 {
		t.Fatalf("admission not linked to the winner's student: %+v", adm)
	}
}

func TestApproveMissingAdmission(t *testing.T) {
	svc := NewService(newMemStore())

	if _, err := svc.Approve(77); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
