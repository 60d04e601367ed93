package model

import (
	"time"

	"gorm.io/gorm"

	"school-service/internal/role"
)

// User represents an authenticated principal. SchoolID is the lazily
// populated cached school id; an empty value means the school has to be
// resolved by walking the relation chain.
type User struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Email      string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password   string         `json:"-" gorm:"type:varchar(255)"`
	FullName   string         `json:"full_name" gorm:"type:varchar(100)"`
	Role       role.Role      `json:"role" gorm:"type:varchar(30);not null;index"`
	SchoolID   string         `json:"school_id,omitempty" gorm:"type:varchar(40);index"`
	SchoolName string         `json:"school_name,omitempty" gorm:"type:varchar(100)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
