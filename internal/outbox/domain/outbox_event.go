// Package domain defines the core outbox domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Event types published through the outbox. Capability lifecycle events are
// written in the same transaction as the grant row they describe.
const (
	EventTypeCapabilityIssued    = "capability.issued"
	EventTypeCapabilityDelegated = "capability.delegated"
	EventTypeCapabilityConsumed  = "capability.consumed"
	EventTypeClientCreated       = "client.created"
	EventTypeClientUpdated       = "client.updated"
)

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
