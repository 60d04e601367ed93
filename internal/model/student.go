package model

import (
	"time"

	"gorm.io/gorm"
)

// Student is an enrolled pupil. StudentCode is the business-level id and is
// unique within a school only, so two schools can both have STUD-005.
// AdmissionID ties the row to the admission it was created from; its unique
// index is what makes admission approval idempotent.
type Student struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      *uint          `json:"user_id,omitempty" gorm:"index"`
	ParentID    *uint          `json:"parent_id,omitempty" gorm:"index"`
	AdmissionID *uint          `json:"admission_id,omitempty" gorm:"uniqueIndex"`
	SchoolID    string         `json:"school_id" gorm:"type:varchar(40);uniqueIndex:idx_students_school_code;index"`
	SchoolName  string         `json:"school_name" gorm:"type:varchar(100)"`
	StudentCode string         `json:"student_code" gorm:"type:varchar(30);uniqueIndex:idx_students_school_code"`
	FirstName   string         `json:"first_name" gorm:"type:varchar(50);not null"`
	LastName    string         `json:"last_name" gorm:"type:varchar(50)"`
	Grade       string         `json:"grade" gorm:"type:varchar(20)"`
	Section     string         `json:"section" gorm:"type:varchar(10)"`
	BirthDate   *time.Time     `json:"birth_date,omitempty"`
	Status      string         `json:"status" gorm:"type:varchar(20);default:'active'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves
func (s *Student) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
