package model

import "time"

// PaymentHistory is an append-only record of a single payment against a fee.
// Rows are never updated; the fee's totals are recomputed from the full set.
type PaymentHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FeeID       uint      `json:"fee_id" gorm:"index;not null"`
	SchoolID    string    `json:"school_id" gorm:"type:varchar(40);index"`
	Amount      int64     `json:"amount" gorm:"not null;check:amount > 0"`
	Mode        string    `json:"mode" gorm:"type:varchar(30)"`
	Reference   string    `json:"reference" gorm:"type:varchar(100)"`
	ReceiptPath string    `json:"receipt_path,omitempty" gorm:"type:varchar(255)"`
	PaidAt      time.Time `json:"paid_at"`
	CreatedAt   time.Time `json:"created_at"`
}
