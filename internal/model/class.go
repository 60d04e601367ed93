package model

import (
	"time"

	"gorm.io/gorm"
)

// Class is a homeroom group. The (name, grade, section) triple is unique
// within a school.
type Class struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	SchoolID   string         `json:"school_id" gorm:"type:varchar(40);uniqueIndex:idx_classes_school_name;index"`
	SchoolName string         `json:"school_name" gorm:"type:varchar(100)"`
	Name       string         `json:"name" gorm:"type:varchar(50);not null;uniqueIndex:idx_classes_school_name"`
	Grade      string         `json:"grade" gorm:"type:varchar(20);uniqueIndex:idx_classes_school_name"`
	Section    string         `json:"section" gorm:"type:varchar(10);uniqueIndex:idx_classes_school_name"`
	TeacherID  *uint          `json:"teacher_id,omitempty" gorm:"index"`
	Capacity   int            `json:"capacity" gorm:"default:0"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves
func (c *Class) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
