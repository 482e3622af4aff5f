package services

import (
	"errors"

	apperrors "github.com/quizforge/quiz-service/internal/errors"
	"github.com/quizforge/quiz-service/internal/quiz"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Bank specific errors
	ErrBankNotFound     = errors.New("question bank not found")
	ErrImportRejected   = errors.New("import rejected")
	ErrNoTableQuestions = errors.New("file contains no table questions")

	// Session specific errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotGrading = errors.New("session is not in the grading phase")
	ErrSessionNotDone    = errors.New("session has not reached results")
	ErrCountMismatch     = errors.New("per-type counts do not sum to total question count")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBankNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrImportRejected) ||
		errors.Is(err, ErrNoTableQuestions) ||
		errors.Is(err, ErrCountMismatch) ||
		errors.Is(err, quiz.ErrInsufficientQuestions) ||
		errors.Is(err, quiz.ErrNoEnabledTypes) {
		return true
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return true
	}
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// IsRejection checks if error is a local answer-input rejection: the user's
// input fails the current question's requirements. Not a system fault.
func IsRejection(err error) bool {
	return errors.Is(err, quiz.ErrAnswerRejected)
}

// IsConflict checks if error represents a state conflict on the session
// machine (out-of-order submission, double answer, bad transition).
func IsConflict(err error) bool {
	return errors.Is(err, quiz.ErrAlreadyAnswered) ||
		errors.Is(err, quiz.ErrNotAnswered) ||
		errors.Is(err, quiz.ErrSectionNotStarted) ||
		errors.Is(err, quiz.ErrSubmissionMismatch) ||
		errors.Is(err, quiz.ErrNoActiveQuestion) ||
		errors.Is(err, quiz.ErrInvalidTransition) ||
		errors.Is(err, ErrSessionNotGrading) ||
		errors.Is(err, ErrSessionNotDone)
}
