package data

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmployeeNotFound = errors.New("Employee not found")
	ErrEmployeeConflict = errors.New("Employee with this email already exists")
	ErrMutationDisabled = errors.New("mutation disabled")
)

// ValidationError is returned when a payload fails schema validation
type ValidationError struct {
	Errors []FieldError
}

func (v *ValidationError) Error() string {
	messages := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		messages = append(messages, e.Message)
	}
	return MessageValidation + ": " + strings.Join(messages, "; ")
}

// Field returns the first error for the given top-level field
func (v *ValidationError) Field(field string) (FieldError, bool) {
	for _, e := range v.Errors {
		if len(e.Path) > 0 && e.Path[0] == field {
			return e, true
		}
	}
	return FieldError{}, false
}

// StoreError is returned when the store couldn't complete an operation,
// it's distinct from an employee confirmed to not exist
type StoreError struct {
	Operation string
	Err       error
}

func NewStoreError(operation string, err error) error {
	return &StoreError{Operation: operation, Err: err}
}

func (s *StoreError) Error() string {
	return fmt.Sprintf("store error while executing %s: %s", s.Operation, s.Err)
}

func (s *StoreError) Unwrap() error {
	return s.Err
}

// ResponseError is a non-successful response received from the service
type ResponseError struct {
	StatusCode int
	Message    string
	Errors     []FieldError
}

func (r *ResponseError) Error() string {
	if r.Message == "" {
		return http.StatusText(r.StatusCode)
	}
	return r.Message
}

// Is allows the client to surface the same error kinds as the service
func (r *ResponseError) Is(target error) bool {
	switch target {
	case ErrEmployeeNotFound:
		return r.StatusCode == http.StatusNotFound
	case ErrEmployeeConflict:
		return r.StatusCode == http.StatusBadRequest &&
			r.Message == ErrEmployeeConflict.Error()
	case ErrMutationDisabled:
		return r.StatusCode == http.StatusForbidden
	}
	return false
}
