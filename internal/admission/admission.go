// Package admission implements the approval flow that turns an admission
// application into exactly one enrolled student.
package admission

import (
	"errors"
	"fmt"

	"school-service/internal/model"
)

var (
	// ErrNotFound covers missing and cross-school admissions alike
	ErrNotFound = errors.New("admission not found")
	// ErrDuplicate is returned by stores on a unique-key conflict
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence surface the approval flow needs. Implementations
// run Approve's store calls inside one transaction.
type Store interface {
	Admission(id uint) (*model.Admission, error)
	StudentByAdmission(admissionID uint) (*model.Student, error)
	CreateStudent(s *model.Student) error
	SaveAdmission(a *model.Admission) error
	// MaxStudentSeq returns the highest numeric suffix among the school's
	// student codes, soft-deleted rows included: a removed student's code
	// still occupies the unique index.
	MaxStudentSeq(schoolID string) (int, error)
}

// Service approves admissions
type Service struct {
	store Store
}

// NewService returns an approval service over the given store
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Approve transitions the admission to Approved and creates its student.
// The operation is idempotent: re-approving, or retrying after a crash that
// left the student behind, links the existing student instead of creating a
// second one. The unique index on students.admission_id is the backstop.
func (s *Service) Approve(admissionID uint) (*model.Student, error) {
	adm, err := s.store.Admission(admissionID)
	if err != nil {
		return nil, err
	}
	if adm == nil {
		return nil, ErrNotFound
	}

	// Already approved with a linked student: nothing to do
	if adm.Status == model.AdmissionStatusApproved && adm.StudentID != nil {
		if existing, err := s.store.StudentByAdmission(adm.ID); err == nil && existing != nil {
			return existing, nil
		}
	}

	// A previous attempt may have created the student without finishing
	// the admission update
	existing, err := s.store.StudentByAdmission(adm.ID)
	if err != nil {
		return nil, err
	}

	student := existing
	if student == nil {
		student, err = s.createStudent(adm)
		if err != nil {
			return nil, err
		}
	}

	adm.Status = model.AdmissionStatusApproved
	adm.StudentID = &student.ID
	if err := s.store.SaveAdmission(adm); err != nil {
		return nil, err
	}
	return student, nil
}

// createStudent inserts the admission's student with the next free code.
// Codes come from the max existing sequence number, not a row count: counts
// go stale the moment a student is removed and would mint a code the unique
// index already holds. A duplicate on insert is either a concurrent approval
// of the same admission (reuse its student) or a code collision with a
// concurrent enrollment (take the next number and retry).
func (s *Service) createStudent(adm *model.Admission) (*model.Student, error) {
	seq, err := s.store.MaxStudentSeq(adm.SchoolID)
	if err != nil {
		return nil, err
	}

	const attempts = 3
	for i := 0; i < attempts; i++ {
		admID := adm.ID
		student := &model.Student{
			AdmissionID: &admID,
			SchoolID:    adm.SchoolID,
			SchoolName:  adm.SchoolName,
			StudentCode: fmt.Sprintf("STUD-%03d", seq+1+i),
			FirstName:   adm.FirstName,
			LastName:    adm.LastName,
			Grade:       adm.Grade,
			Section:     adm.Section,
			BirthDate:   adm.BirthDate,
		}
		err := s.store.CreateStudent(student)
		if err == nil {
			return student, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		// Raced with a concurrent approval of this admission: reuse its
		// student
		existing, lookupErr := s.store.StudentByAdmission(adm.ID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return existing, nil
		}
		// Otherwise the code itself collided; the next iteration tries
		// the following sequence number
	}
	return nil, fmt.Errorf("no free student code for admission %d after %d attempts", adm.ID, attempts)
}
