package application

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a resource with the same identity is already stored.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when an operation would clobber or orphan existing data.
	ErrConflict = errors.New("application: conflict")
	// ErrInvalidConfiguration is returned when governance parameters cannot drive a calculation.
	ErrInvalidConfiguration = errors.New("application: invalid configuration")
	// ErrInvalidTransition is returned when a lifecycle change is not allowed from the current state.
	ErrInvalidTransition = errors.New("application: invalid state transition")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func fieldError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}
