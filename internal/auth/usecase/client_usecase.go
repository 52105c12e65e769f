// Package usecase implements business logic orchestration for authentication operations.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	authService "github.com/sovereignos/guard/internal/auth/service"
	"github.com/sovereignos/guard/internal/database"
	apperrors "github.com/sovereignos/guard/internal/errors"
	outboxDomain "github.com/sovereignos/guard/internal/outbox/domain"
	"github.com/sovereignos/guard/internal/scopes"
)

// clientUseCase implements ClientUseCase interface for managing client authentication.
type clientUseCase struct {
	txManager     database.TxManager
	clientRepo    ClientRepository
	secretService authService.SecretService
	outboxRepo    OutboxEventRepository
}

// Create generates and persists a new Client with a random secret.
// Returns the client ID and plain text secret. The plain secret is only returned once
// and must be securely stored by the caller. The hashed version is stored in the database.
func (c *clientUseCase) Create(
	ctx context.Context,
	createClientInput *authDomain.CreateClientInput,
) (*authDomain.CreateClientOutput, error) {
	// Generate a secure random secret
	plainSecret, hashedSecret, err := c.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	// Bundle names expand here, once. The stored grant is the flattened list.
	client := &authDomain.Client{
		ID:        uuid.Must(uuid.NewV7()),
		Secret:    hashedSecret,
		Name:      createClientInput.Name,
		Subject:   createClientInput.Subject,
		IsActive:  createClientInput.IsActive,
		Scopes:    scopes.Flatten(createClientInput.Scopes),
		CreatedAt: time.Now().UTC(),
	}

	// Persist the client and the client.created event in one transaction
	err = c.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := c.clientRepo.Create(ctx, client); err != nil {
			return err
		}

		return c.enqueueEvent(ctx, outboxDomain.EventTypeClientCreated, map[string]interface{}{
			"client_id": client.ID,
			"name":      client.Name,
			"subject":   client.Subject,
			"scopes":    client.Scopes,
		})
	})
	if err != nil {
		return nil, err
	}

	// Return the client ID and plain secret
	return &authDomain.CreateClientOutput{
		ID:          client.ID,
		PlainSecret: plainSecret,
	}, nil
}

// Update modifies an existing client's configuration.
// Only Name, IsActive, and Scopes can be updated. The client ID, subject, and
// secret remain unchanged.
func (c *clientUseCase) Update(
	ctx context.Context,
	clientID uuid.UUID,
	updateClientInput *authDomain.UpdateClientInput,
) error {
	// Get the existing client
	client, err := c.clientRepo.Get(ctx, clientID)
	if err != nil {
		return err
	}

	// Update mutable fields
	client.Name = updateClientInput.Name
	client.IsActive = updateClientInput.IsActive
	client.Scopes = scopes.Flatten(updateClientInput.Scopes)

	return c.persistUpdate(ctx, client)
}

// Get retrieves a client by ID.
// Returns ErrClientNotFound if the client doesn't exist.
func (c *clientUseCase) Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error) {
	return c.clientRepo.Get(ctx, clientID)
}

// Delete performs a soft delete on a client by setting IsActive to false.
// This prevents the client from authenticating while preserving audit history.
func (c *clientUseCase) Delete(ctx context.Context, clientID uuid.UUID) error {
	// Get the existing client
	client, err := c.clientRepo.Get(ctx, clientID)
	if err != nil {
		return err
	}

	// Soft delete by deactivating
	client.IsActive = false

	return c.persistUpdate(ctx, client)
}

// List retrieves clients ordered by ID descending with pagination support.
// Returns empty slice if no clients found.
func (c *clientUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.Client, error) {
	return c.clientRepo.List(ctx, offset, limit)
}

// Unlock clears the lockout state for a client, resetting failed_attempts and locked_until.
// Returns ErrClientNotFound if the client doesn't exist.
func (c *clientUseCase) Unlock(ctx context.Context, clientID uuid.UUID) error {
	if _, err := c.clientRepo.Get(ctx, clientID); err != nil {
		return err
	}
	return c.clientRepo.UpdateLockState(ctx, clientID, 0, nil)
}

// persistUpdate writes the client and a client.updated event in one transaction,
// so downstream consumers always learn about grant and status changes.
func (c *clientUseCase) persistUpdate(ctx context.Context, client *authDomain.Client) error {
	return c.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := c.clientRepo.Update(ctx, client); err != nil {
			return err
		}

		return c.enqueueEvent(ctx, outboxDomain.EventTypeClientUpdated, map[string]interface{}{
			"client_id": client.ID,
			"name":      client.Name,
			"is_active": client.IsActive,
			"scopes":    client.Scopes,
		})
	})
}

// enqueueEvent marshals the payload and writes a pending outbox event.
// Must be called inside a transaction alongside the state change it announces.
func (c *clientUseCase) enqueueEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    outboxDomain.OutboxEventStatusPending,
		Retries:   0,
	}

	if err := c.outboxRepo.Create(ctx, outboxEvent); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}

	return nil
}

// NewClientUseCase creates a new ClientUseCase with the provided dependencies.
func NewClientUseCase(
	txManager database.TxManager,
	clientRepo ClientRepository,
	secretService authService.SecretService,
	outboxRepo OutboxEventRepository,
) ClientUseCase {
	return &clientUseCase{
		txManager:     txManager,
		clientRepo:    clientRepo,
		secretService: secretService,
		outboxRepo:    outboxRepo,
	}
}
