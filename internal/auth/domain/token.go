package domain

import (
	"time"

	"github.com/google/uuid"
)

// Token is a short-lived bearer credential issued in exchange for a client
// secret. Only the SHA-256 hex hash is stored; the plaintext exists once, in
// the issue response.
type Token struct {
	ID        uuid.UUID
	TokenHash string
	ClientID  uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IssueTokenInput contains the credentials presented to obtain a token.
type IssueTokenInput struct {
	ClientID     uuid.UUID
	ClientSecret string
}

// IssueTokenOutput contains the result of issuing a token.
// SECURITY: The PlainToken is only returned once and must be saved securely.
type IssueTokenOutput struct {
	PlainToken string
	ExpiresAt  time.Time
}
