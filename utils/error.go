package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError carries a user-facing message for a rejected input.
// Handlers render it as 422 without partial mutation having happened.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// InvalidStateTransitionError is returned when a lifecycle action is
// attempted from a state that does not allow it.
type InvalidStateTransitionError struct {
	Action  string
	From    string
	Message string
}

func (e *InvalidStateTransitionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("cannot %s from status %q", e.Action, e.From)
}

func NewInvalidStateTransition(action, from, message string) error {
	return &InvalidStateTransitionError{Action: action, From: from, Message: message}
}

// UserFacingMessage extracts the message of validation / transition errors.
// Returns ok=false for internal errors that must not leak to clients.
func UserFacingMessage(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	var te *InvalidStateTransitionError
	if errors.As(err, &te) {
		return te.Error(), true
	}
	return "", false
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
