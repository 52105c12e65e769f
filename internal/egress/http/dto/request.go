// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/sovereignos/guard/internal/validation"
)

// CheckEgressRequest contains the URL a caller wants cleared for outbound use.
type CheckEgressRequest struct {
	URL string `json:"url"`
}

// Validate checks if the egress check request is valid.
func (r *CheckEgressRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.URL,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 2048),
		),
	)
}
