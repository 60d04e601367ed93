package model

import (
	"time"

	"gorm.io/gorm"
)

// Parent is a guardian profile linked to a User account. Children point back
// here via Student.ParentID.
type Parent struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	SchoolID   string         `json:"school_id" gorm:"type:varchar(40);index"`
	SchoolName string         `json:"school_name" gorm:"type:varchar(100)"`
	FirstName  string         `json:"first_name" gorm:"type:varchar(50);not null"`
	LastName   string         `json:"last_name" gorm:"type:varchar(50)"`
	Phone      string         `json:"phone" gorm:"type:varchar(20)"`
	Occupation string         `json:"occupation" gorm:"type:varchar(50)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves
func (p *Parent) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
