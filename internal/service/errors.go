package service

import "errors" // Sentinel errors

// Error kinds. Handlers map each kind to exactly one HTTP status;
// anything that unwraps to none of them is an internal failure.
var (
	ErrUnauthenticated = errors.New("unauthenticated") // Missing, invalid or expired credential
	ErrInvalidInput    = errors.New("invalid input")   // Missing or malformed fields
	ErrConflict        = errors.New("conflict")        // Duplicate signup email
	ErrNotFound        = errors.New("not found")       // Absent, or owned by someone else
)

// kindError carries a user facing message while unwrapping to its kind
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// fail builds an error of the given kind with a user facing message
func fail(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}
