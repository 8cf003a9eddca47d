package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/powerflow/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError = errors.FieldProblem

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns a configuration AppError if there are validation errors, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return errors.ConfigurationFields(v.errors)
}

// Err is Validate typed as error, so a nil result compares equal to nil.
func (v *Validator) Err() error {
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Min checks if a number meets minimum value.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	if value < minVal {
		v.AddError(field, fmt.Sprintf("must be at least %d", minVal))
	}
	return v
}

// OneOf checks if a non-empty value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("unrecognized value %q (must be one of: %s)", value, strings.Join(allowed, ", ")))
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// Merge appends another validator's errors, prefixing their field paths.
func (v *Validator) Merge(prefix string, other *Validator) *Validator {
	for _, e := range other.errors {
		field := e.Field
		if prefix != "" {
			field = prefix + "." + field
		}
		v.AddError(field, e.Message)
	}
	return v
}

// Required validates a single required field and returns an error if empty.
func Required(field, value string) error {
	return New().Required(field, value).Err()
}

// MergeError folds the field problems of a configuration error into v under
// prefix. Errors of any other kind are returned unchanged.
func (v *Validator) MergeError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeConfiguration {
		return err
	}
	problems, _ := appErr.Details["fields"].([]errors.FieldProblem)
	if len(problems) == 0 {
		field, _ := appErr.Details["field"].(string)
		msg := strings.TrimPrefix(appErr.Message, field+": ")
		problems = []errors.FieldProblem{{Field: field, Message: msg}}
	}
	for _, p := range problems {
		field := p.Field
		if prefix != "" {
			field = strings.TrimSuffix(prefix+"."+field, ".")
		}
		v.AddError(field, p.Message)
	}
	return nil
}
