package model

import (
	"time"

	"gorm.io/gorm"
)

// Fee statuses
const (
	FeeStatusPending = "pending"
	FeeStatusPaid    = "paid"
)

// Fee is a billable amount against a student. Amounts are int64 minor
// currency units. PaidAmount and DueAmount are derived from the payment
// history by full resummation and must never be written directly by
// request handlers.
type Fee struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	StudentID   uint           `json:"student_id" gorm:"index;not null"`
	SchoolID    string         `json:"school_id" gorm:"type:varchar(40);index"`
	SchoolName  string         `json:"school_name" gorm:"type:varchar(100)"`
	Title       string         `json:"title" gorm:"type:varchar(100);not null"`
	Term        string         `json:"term" gorm:"type:varchar(30)"`
	TotalAmount int64          `json:"total_amount" gorm:"not null;check:total_amount >= 0"`
	PaidAmount  int64          `json:"paid_amount" gorm:"not null;default:0;check:paid_amount >= 0"`
	DueAmount   int64          `json:"due_amount" gorm:"not null;default:0"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeUpdate keeps the school columns write-once on ordinary saves
func (f *Fee) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.Omit("school_id", "school_name")
	return nil
}
