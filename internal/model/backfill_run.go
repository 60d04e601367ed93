package model

import "time"

// BackfillRun records one execution of the school-id backfill job
type BackfillRun struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	StartedBy  uint       `json:"started_by" gorm:"not null"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Scanned    int64      `json:"scanned"`
	Repaired   int64      `json:"repaired"`
	Notes      string     `json:"notes" gorm:"type:text"`
}
