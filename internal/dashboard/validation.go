package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when a dashboard or panel configuration does
// not fit the record schema it is used with.
var ErrInvalidConfig = errors.New("invalid dashboard configuration")

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult contains the result of validation
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// NewValidationResult returns an empty, valid result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{IsValid: true}
}

// AddError adds an error to the validation result
func (r *ValidationResult) AddError(field, code, message string) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Code:    code,
		Message: message,
	})
	r.IsValid = false
}

// Merge appends the errors of other under a field prefix
func (r *ValidationResult) Merge(prefix string, other *ValidationResult) {
	for _, e := range other.Errors {
		field := e.Field
		if prefix != "" {
			field = prefix + "." + field
		}
		r.AddError(field, e.Code, e.Message)
	}
}

// HasCode reports whether any error carries the given code
func (r *ValidationResult) HasCode(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Err returns nil for a valid result and a *ConfigError otherwise.
func (r *ValidationResult) Err() error {
	if r == nil || r.IsValid {
		return nil
	}
	return &ConfigError{Result: r}
}

// ConfigError carries the validation result of a rejected configuration
type ConfigError struct {
	Result *ValidationResult
}

func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Result.Errors))
	for i, ve := range e.Result.Errors {
		parts[i] = fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Validation error codes
const (
	CodeRequired        = "required"
	CodeInvalid         = "invalid"
	CodeUnknownField    = "unknown_field"
	CodeUnknownFilter   = "unknown_filter"
	CodeUnknownStat     = "unknown_stat"
	CodeDuplicate       = "duplicate"
	CodeNoOptions       = "no_options"
	CodeIncompleteClick = "incomplete_click_target"
)
