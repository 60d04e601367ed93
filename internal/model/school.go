package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// School represents a school, the unit of data isolation. Its id is derived
// once from the state code, district code and registration number; those
// three fields are immutable after creation because changing them would
// change the id and orphan every denormalized dependent row.
type School struct {
	ID                 string         `json:"id" gorm:"primaryKey;type:varchar(40)"`
	StateCode          string         `json:"state_code" gorm:"type:varchar(10);not null"`
	DistrictCode       string         `json:"district_code" gorm:"type:varchar(10);not null"`
	RegistrationNumber string         `json:"registration_number" gorm:"type:varchar(20);not null"`
	Name               string         `json:"name" gorm:"type:varchar(100);not null"`
	Address            string         `json:"address" gorm:"type:text"`
	Phone              string         `json:"phone" gorm:"type:varchar(20)"`
	AdminUserID        *uint          `json:"admin_user_id,omitempty" gorm:"uniqueIndex"`
	Active             bool           `json:"active" gorm:"default:true"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

// NewSchoolID derives the school id from its three source fields
func NewSchoolID(stateCode, districtCode, registrationNumber string) string {
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s",
		strings.TrimSpace(stateCode),
		strings.TrimSpace(districtCode),
		strings.TrimSpace(registrationNumber)))
}

// BeforeCreate derives the id if the caller did not
func (s *School) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewSchoolID(s.StateCode, s.DistrictCode, s.RegistrationNumber)
	}
	return nil
}
