package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validate checks the fields a submitted script must carry.
func (s Script) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	if strings.TrimSpace(s.Command) == "" {
		return &ValidationError{Field: "command"}
	}
	return nil
}
