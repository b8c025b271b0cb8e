package models

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("Not authorized")
	ErrUnauthorized = errors.New("Token is not valid")
	ErrConflict     = errors.New("conflict")
)

// kindError carries a client-facing message and matches its kind with errors.Is.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

var (
	ErrEventNotFound = &kindError{msg: "Event not found", kind: ErrNotFound}
	ErrUserNotFound  = &kindError{msg: "User not found", kind: ErrNotFound}

	ErrEventFull               = &kindError{msg: "Event is full", kind: ErrConflict}
	ErrAlreadyJoined           = &kindError{msg: "Already joined", kind: ErrConflict}
	ErrCapacityBelowAttendance = &kindError{msg: "Capacity cannot be lower than the current number of attendees", kind: ErrConflict}
	ErrEmailTaken              = &kindError{msg: "User already exists", kind: ErrConflict}
	ErrInvalidCredentials      = &kindError{msg: "Invalid credentials", kind: ErrConflict}
)

// ValidationError reports bad input before anything touches the store.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
