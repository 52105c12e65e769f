// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/sovereignos/guard/internal/validation"
)

// IssueCapabilityRequest contains the parameters for minting a root
// capability. TTLSeconds of zero selects the server's configured default TTL;
// a nil Uses field grants unlimited uses.
type IssueCapabilityRequest struct {
	Subject     string         `json:"subject"`
	Action      string         `json:"action"`
	Resource    string         `json:"resource"`
	Constraints map[string]any `json:"constraints"`
	TTLSeconds  int            `json:"ttl_seconds"`
	Uses        *int           `json:"uses"`
}

// Validate checks if the issue capability request is valid. The action is
// validated against the closed action set in the handler, not here.
func (r *IssueCapabilityRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Subject,
			validation.Required,
			customValidation.NotBlank,
			customValidation.SubjectFormat,
			validation.Length(1, 255),
		),
		validation.Field(&r.Action,
			validation.Required,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.Resource,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.TTLSeconds,
			validation.Min(0),
		),
		validation.Field(&r.Uses,
			validation.Min(0),
		),
	)
}

// DelegateCapabilityRequest contains the parameters for minting a child
// capability attenuated from an existing grant.
type DelegateCapabilityRequest struct {
	ParentCapabilityID string         `json:"parent_capability_id"`
	Subject            string         `json:"subject"`
	Action             string         `json:"action"`
	Resource           string         `json:"resource"`
	Constraints        map[string]any `json:"constraints"`
	TTLSeconds         int            `json:"ttl_seconds"`
	Uses               *int           `json:"uses"`
}

// Validate checks if the delegate capability request is valid.
func (r *DelegateCapabilityRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ParentCapabilityID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Subject,
			validation.Required,
			customValidation.NotBlank,
			customValidation.SubjectFormat,
			validation.Length(1, 255),
		),
		validation.Field(&r.Action,
			validation.Required,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.Resource,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.TTLSeconds,
			validation.Min(0),
		),
		validation.Field(&r.Uses,
			validation.Min(0),
		),
	)
}

// VerifyCapabilityRequest contains the parameters for a stateless token
// verification: the token plus the action and resource the caller wants to
// perform with it.
type VerifyCapabilityRequest struct {
	Token    string `json:"token"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
}

// Validate checks if the verify capability request is valid.
func (r *VerifyCapabilityRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Action,
			validation.Required,
			customValidation.NoWhitespace,
		),
		validation.Field(&r.Resource,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
