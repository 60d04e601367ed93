package model

import (
	"time"

	"gorm.io/gorm"
)

// Admission statuses
const (
	AdmissionStatusPending  = "Pending"
	AdmissionStatusApproved = "Approved"
	AdmissionStatusRejected = "Rejected"
)

// Admission is an application to enroll. Approving it creates exactly one
// Student; StudentID records which one.
type Admission struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SchoolID    string         `json:"school_id" gorm:"type:varchar(40);index"`
	SchoolName  string         `json:"school_name" gorm:"type:varchar(100)"`
	FirstName   string         `json:"first_name" gorm:"type:varchar(50);not null"`
	LastName    string         `json:"last_name" gorm:"type:varchar(50)"`
	Grade       string         `json:"grade" gorm:"type:varchar(20)"`
	Section     string         `json:"section" gorm:"type:varchar(10)"`
	BirthDate   *time.Time     `json:"birth_date,omitempty"`
	ParentName  string         `json:"parent_name" gorm:"type:varchar(100)"`
	ParentPhone string         `json:"parent_phone" gorm:"type:varchar(20)"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'Pending'"`
	StudentID   *uint          `json:"student_id,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves
func (a *Admission) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
