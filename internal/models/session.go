package models

import "time"

// SessionQuestion is a QuestionRecord bound to its session-wide position.
// The global index is assigned exactly once when the session is organized
// and is the key for all per-question state.
type SessionQuestion struct {
	QuestionRecord
	GlobalIndex int `json:"global_index"`
}

// AnswerState tracks the submitted answer for one session question.
// IsCorrect is set exactly once, at submission. CorrectSnapshot is captured
// when the session is organized so later bank mutation cannot retroactively
// change grading.
type AnswerState struct {
	UserAnswer      *string            `json:"user_answer,omitempty"`
	TableAnswers    map[CellKey]string `json:"table_answers,omitempty"`
	Submitted       bool               `json:"submitted"`
	IsCorrect       bool               `json:"is_correct"`
	CorrectSnapshot string             `json:"-"`
}

// TypeScore is the per-type portion of a session result.
type TypeScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// SessionResult summarizes a completed session. A table question counts as
// one unit regardless of how many cells it has.
type SessionResult struct {
	Score      int                    `json:"score"`
	Total      int                    `json:"total"`
	Percentage int                    `json:"percentage"`
	Timestamp  time.Time              `json:"timestamp"`
	Breakdown  map[QuizType]TypeScore `json:"breakdown,omitempty"`
}
