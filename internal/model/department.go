package model

import (
	"time"

	"gorm.io/gorm"
)

// Department groups teachers within a school
type Department struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	SchoolID      string         `json:"school_id" gorm:"type:varchar(40);not null;uniqueIndex:idx_departments_school_name"`
	SchoolName    string         `json:"school_name" gorm:"type:varchar(100)"`
	Name          string         `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_departments_school_name"`
	HeadTeacherID *uint          `json:"head_teacher_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves.
// Administrative repair paths run with hooks skipped.
func (d *Department) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
