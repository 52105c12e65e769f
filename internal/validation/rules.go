// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/sovereignos/guard/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// SubjectFormat validates a principal reference of the form "<kind>:<name>",
// e.g. "agent:kasra" or "svc:gateway". Both parts must be non-empty.
var SubjectFormat = validation.NewStringRuleWithError(
	func(s string) bool {
		kind, name, ok := strings.Cut(s, ":")
		return ok && strings.TrimSpace(kind) != "" && strings.TrimSpace(name) != ""
	},
	validation.NewError("validation_subject_format", "must be of the form <kind>:<name>, e.g. agent:kasra"),
)
