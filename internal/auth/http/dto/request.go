// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/sovereignos/guard/internal/validation"
)

// CreateClientRequest contains the parameters for creating a new authentication client.
// Scopes accepts bundle names ("readonly", "user", "agent", "admin") and raw scope
// strings ("memory.read"); the grant is flattened once at provisioning. Unknown
// entries are tolerated and skipped, so clients provisioned against a newer
// deployment's scope set degrade instead of failing.
type CreateClientRequest struct {
	Name     string   `json:"name"`
	Subject  string   `json:"subject"`
	IsActive bool     `json:"is_active"`
	Scopes   []string `json:"scopes"`
}

// Validate checks if the create client request is valid.
func (r *CreateClientRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Subject,
			validation.Required,
			customValidation.NotBlank,
			customValidation.SubjectFormat,
			validation.Length(1, 255),
		),
		validation.Field(&r.Scopes,
			validation.Required,
			validation.Each(
				validation.Required,
				customValidation.NoWhitespace,
				validation.Length(1, 100),
			),
		),
	)
}

// UpdateClientRequest contains the parameters for updating an existing client.
// The subject is fixed at creation and deliberately absent here.
type UpdateClientRequest struct {
	Name     string   `json:"name"`
	IsActive bool     `json:"is_active"`
	Scopes   []string `json:"scopes"`
}

// Validate checks if the update client request is valid.
func (r *UpdateClientRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Scopes,
			validation.Required,
			validation.Each(
				validation.Required,
				customValidation.NoWhitespace,
				validation.Length(1, 100),
			),
		),
	)
}

// IssueTokenRequest contains the parameters for issuing an authentication token.
type IssueTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Validate checks if the issue token request is valid.
func (r *IssueTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ClientID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.ClientSecret,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
