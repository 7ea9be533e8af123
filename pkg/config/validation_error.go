package config

import (
	"fmt"
	"strings"
)

// ValidationError collects every configuration problem found in one pass
type ValidationError struct {
	Errors []error
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{}
}

// Add records err; nil is ignored
func (v *ValidationError) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// HasErrors reports whether anything was recorded
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error lists the problems, one per line when there are several
func (v *ValidationError) Error() string {
	switch len(v.Errors) {
	case 0:
		return ""
	case 1:
		return v.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "found %d validation errors:", len(v.Errors))
	for i, err := range v.Errors {
		fmt.Fprintf(&sb, "\n  %d. %v", i+1, err)
	}
	return sb.String()
}

// Unwrap exposes every recorded error to errors.Is and errors.As
func (v *ValidationError) Unwrap() []error {
	return v.Errors
}

// ErrorOrNil returns v when it holds errors, otherwise nil
func (v *ValidationError) ErrorOrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
