package tenant

import (
	"errors"

	"gorm.io/gorm"

	"school-service/internal/model"
)

// GormDirectory implements Directory against the relational store
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory returns a Directory backed by db
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) SchoolOwnedBy(userID uint) (*model.School, error) {
	var school model.School
	err := d.db.Where("admin_user_id = ?", userID).First(&school).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &school, nil
}

func (d *GormDirectory) TeacherByUser(userID uint) (*model.Teacher, error) {
	var teacher model.Teacher
	err := d.db.Where("user_id = ?", userID).First(&teacher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (d *GormDirectory) DepartmentByID(id uint) (*model.Department, error) {
	var dept model.Department
	err := d.db.First(&dept, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (d *GormDirectory) StudentByUser(userID uint) (*model.Student, error) {
	var student model.Student
	err := d.db.Where("user_id = ?", userID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (d *GormDirectory) ParentByUser(userID uint) (*model.Parent, error) {
	var parent model.Parent
	err := d.db.Where("user_id = ?", userID).First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

// FirstStudentOfParent picks the lowest-id linked student, the stable
// analogue of the storage-ordered "first" in the original system.
func (d *GormDirectory) FirstStudentOfParent(parentID uint) (*model.Student, error) {
	var student model.Student
	err := d.db.Where("parent_id = ?", parentID).Order("id asc").First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (d *GormDirectory) StudentsOfParent(parentID uint) ([]*model.Student, error) {
	var students []*model.Student
	err := d.db.Where("parent_id = ?", parentID).Order("id asc").Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}
