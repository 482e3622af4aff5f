package models

import (
	"time"

	"gorm.io/datatypes"
)

// HistoryEntry is one persisted record of a completed session. The history
// log is ordered most-recent-first and is the only durable state the quiz
// core writes.
type HistoryEntry struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Score      int            `json:"score" gorm:"not null"`
	Total      int            `json:"total" gorm:"not null"`
	Percentage int            `json:"percentage" gorm:"not null"`
	Breakdown  datatypes.JSON `json:"breakdown,omitempty"`
	Date       time.Time      `json:"date" gorm:"index"`
}

func (HistoryEntry) TableName() string {
	return "quiz_history"
}
