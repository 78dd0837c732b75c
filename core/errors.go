package core

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a required lookup matched zero rows.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken is returned for a malformed, tampered or expired session token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmptyCriteria guards against an accidental full-table match or wipe.
	ErrEmptyCriteria = errors.New("search criteria is empty")
)

// PersistError reports a failed write. When it comes out of a transactional
// write set, the store is guaranteed unchanged.
type PersistError struct {
	Err error
}

func NewPersistError(err error) error {
	return &PersistError{Err: err}
}

func (e *PersistError) Error() string {
	if e.Err == nil {
		return "could not persist changes"
	}
	return "could not persist changes: " + e.Err.Error()
}

func (e *PersistError) Unwrap() error { return e.Err }

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
