package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session id cannot be resolved.
	ErrSessionNotFound = errors.New("session not found")
	// ErrConflict is the parent of every error raised by an operation that is invalid
	// for the session's current state.
	ErrConflict = errors.New("conflict")
	// ErrSessionFinished is returned when a finished session is started or played.
	ErrSessionFinished = fmt.Errorf("%w: session finished", ErrConflict)
	// ErrSessionNotRunning is returned when a session has not been started.
	ErrSessionNotRunning = fmt.Errorf("%w: session not running", ErrConflict)
	// ErrNoMoreQuestions is returned when the current pointer ran past the last question.
	ErrNoMoreQuestions = fmt.Errorf("%w: no more questions", ErrConflict)
	// ErrAlreadyAnswered is returned on a second answer to the same question.
	ErrAlreadyAnswered = fmt.Errorf("%w: already answered", ErrConflict)

	// ErrInsufficientQuestions matches every *InsufficientQuestionsError.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrQuestionNotFound indicates a question id is unknown to the store.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrUserNotFound indicates a username or user id is unknown to the store.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = fmt.Errorf("%w: username already exists", ErrConflict)
	// ErrInvalidCredentials is returned for a bad username/password pair or token.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrForbidden is returned when an authenticated caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// InsufficientQuestionsError reports a sampling shortfall.
type InsufficientQuestionsError struct {
	Requested int
	Available int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("not enough questions: requested=%d, available=%d", e.Requested, e.Available)
}

func (e *InsufficientQuestionsError) Is(target error) bool {
	return target == ErrInsufficientQuestions
}

// ValidationError describes a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
