package model

import (
	"time"

	"gorm.io/gorm"
)

// Bus is a transport route owned by a school
type Bus struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SchoolID    string         `json:"school_id" gorm:"type:varchar(40);uniqueIndex:idx_buses_school_plate;index"`
	SchoolName  string         `json:"school_name" gorm:"type:varchar(100)"`
	RouteName   string         `json:"route_name" gorm:"type:varchar(100);not null"`
	PlateNumber string         `json:"plate_number" gorm:"type:varchar(20);uniqueIndex:idx_buses_school_plate"`
	DriverName  string         `json:"driver_name" gorm:"type:varchar(100)"`
	DriverPhone string         `json:"driver_phone" gorm:"type:varchar(20)"`
	Capacity    int            `json:"capacity" gorm:"default:0"`
	Stops       []BusStop      `json:"stops,omitempty" gorm:"foreignKey:BusID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BusStop is a drop-off point on a bus route, ordered by Sequence
type BusStop struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	BusID       uint      `json:"bus_id" gorm:"index;not null"`
	SchoolID    string    `json:"school_id" gorm:"type:varchar(40);index"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	DropOffTime string    `json:"drop_off_time" gorm:"type:varchar(10)"`
	Sequence    int       `json:"sequence" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves
func (b *Bus) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
