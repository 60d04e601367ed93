package model

import "time"

// ChatMessage is a best-effort persisted copy of a relayed chat message.
// Delivery to connected room members does not depend on this row existing.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Room      string    `json:"room" gorm:"type:varchar(100);index;not null"`
	SenderID  uint      `json:"sender_id" gorm:"index;not null"`
	Recipient string    `json:"recipient" gorm:"type:varchar(100)"`
	Body      string    `json:"message" gorm:"type:text;not null"`
	SchoolID  string    `json:"school_id" gorm:"type:varchar(40);index"`
	CreatedAt time.Time `json:"timestamp"`
}
