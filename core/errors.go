package core

import "github.com/pkg/errors"

// FieldError is a user-facing error on a specific form field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field errors suitable for flashing back to the
// user, on top of the underlying cause.
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

// Messages returns the user-facing messages, one per field, falling back to
// the wrapped error when no field errors were attached.
func (err ValidationError) Messages() []string {
	if len(err.Fields) == 0 {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, fe := range err.Fields {
		msgs = append(msgs, fe.Error)
	}
	return msgs
}

type shutdown struct {
	message string
}

// NewShutdownError marks an error as unrecoverable; the web layer stops the
// server when it sees one.
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
