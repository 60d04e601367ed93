package model

import (
	"time"

	"gorm.io/gorm"
)

// Teacher is a staff profile linked to a User account. SchoolID is cached
// from the department at creation time; EmployeeCode is unique per school,
// never globally.
type Teacher struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	DepartmentID *uint          `json:"department_id,omitempty" gorm:"index"`
	SchoolID     string         `json:"school_id" gorm:"type:varchar(40);uniqueIndex:idx_teachers_school_code;index"`
	SchoolName   string         `json:"school_name" gorm:"type:varchar(100)"`
	EmployeeCode string         `json:"employee_code" gorm:"type:varchar(30);uniqueIndex:idx_teachers_school_code"`
	FirstName    string         `json:"first_name" gorm:"type:varchar(50);not null"`
	LastName     string         `json:"last_name" gorm:"type:varchar(50)"`
	Subject      string         `json:"subject" gorm:"type:varchar(50)"`
	Phone        string         `json:"phone" gorm:"type:varchar(20)"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves
func (t *Teacher) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
