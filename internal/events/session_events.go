package events

import (
	"time"

	"github.com/quizforge/quiz-service/internal/models"
)

// EventType represents different types of session events
type EventType string

const (
	EventSessionCompleted EventType = "session.completed"
)

// SessionEvent is the base event structure published to the bus.
type SessionEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

// SessionCompletedEvent carries the final result of a graded session.
type SessionCompletedEvent struct {
	SessionID  string               `json:"session_id"`
	Score      int                  `json:"score"`
	Total      int                  `json:"total"`
	Percentage int                  `json:"percentage"`
	Result     models.SessionResult `json:"result"`
}

// NewSessionCompletedEvent wraps a session result into a publishable event.
func NewSessionCompletedEvent(eventID, sessionID string, result models.SessionResult) *SessionEvent {
	return &SessionEvent{
		ID:        eventID,
		Type:      EventSessionCompleted,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: SessionCompletedEvent{
			SessionID:  sessionID,
			Score:      result.Score,
			Total:      result.Total,
			Percentage: result.Percentage,
			Result:     result,
		},
	}
}
