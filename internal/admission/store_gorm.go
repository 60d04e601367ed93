package admission

import (
	"errors"

	"gorm.io/gorm"

	"school-service/internal/model"
	"school-service/internal/tenant"
)

// GormStore implements Store against the relational store, with reads
// narrowed to the caller's scope
type GormStore struct {
	db    *gorm.DB
	scope tenant.Scope
}

// NewGormStore returns a store over db scoped to the given decision
func NewGormStore(db *gorm.DB, scope tenant.Scope) *GormStore {
	return &GormStore{db: db, scope: scope}
}

func (g *GormStore) Admission(id uint) (*model.Admission, error) {
	var adm model.Admission
	err := g.scope.Apply(g.db).First(&adm, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &adm, nil
}

func (g *GormStore) StudentByAdmission(admissionID uint) (*model.Student, error) {
	var student model.Student
	err := g.db.Where("admission_id = ?", admissionID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (g *GormStore) CreateStudent(s *model.Student) error {
	err := g.db.Create(s).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (g *GormStore) SaveAdmission(a *model.Admission) error {
	return g.db.Model(a).Updates(map[string]interface{}{
		"status":     a.Status,
		"student_id": a.StudentID,
	}).Error
}

// MaxStudentSeq scans Unscoped so soft-deleted students still reserve their
// code; the unique index keeps holding it after removal.
func (g *GormStore) MaxStudentSeq(schoolID string) (int, error) {
	var max int
	err := g.db.Unscoped().Model(&model.Student{}).
		Where("school_id = ? AND student_code LIKE 'STUD-%'", schoolID).
		Select("COALESCE(MAX(CAST(SUBSTRING(student_code FROM 6) AS INTEGER)), 0)").
		Scan(&max).Error
	return max, err
}
