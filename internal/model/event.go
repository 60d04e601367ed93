package model

import (
	"time"

	"gorm.io/gorm"
)

// Event is a school calendar entry
type Event struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SchoolID    string         `json:"school_id" gorm:"type:varchar(40);index"`
	SchoolName  string         `json:"school_name" gorm:"type:varchar(100)"`
	Title       string         `json:"title" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Location    string         `json:"location" gorm:"type:varchar(100)"`
	StartsAt    time.Time      `json:"starts_at" gorm:"index"`
	EndsAt      time.Time      `json:"ends_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves
func (e *Event) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
