// Package postgresql implements auth persistence for PostgreSQL, using
// native UUID and JSONB types with transaction support via database.GetTx().
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/sovereignos/guard/internal/auth/domain"
	"github.com/sovereignos/guard/internal/database"
	apperrors "github.com/sovereignos/guard/internal/errors"
)

// PostgreSQLClientRepository implements Client persistence for PostgreSQL.
// The flattened scope grant is stored as a JSONB array of scope names.
type PostgreSQLClientRepository struct {
	db *sql.DB
}

// NewPostgreSQLClientRepository creates a new PostgreSQL Client repository.
func NewPostgreSQLClientRepository(db *sql.DB) *PostgreSQLClientRepository {
	return &PostgreSQLClientRepository{db: db}
}

// Create inserts a new Client into the PostgreSQL database.
func (p *PostgreSQLClientRepository) Create(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, p.db)

	scopesJSON, err := json.Marshal(client.Scopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client scopes")
	}

	query := `INSERT INTO clients
			  (id, secret, name, subject, is_active, scopes, failed_attempts, locked_until, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = querier.ExecContext(
		ctx,
		query,
		client.ID,
		client.Secret,
		client.Name,
		client.Subject,
		client.IsActive,
		scopesJSON,
		client.FailedAttempts,
		client.LockedUntil,
		client.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create client")
	}
	return nil
}

// Update modifies an existing Client in the PostgreSQL database. The lockout
// columns are managed separately through UpdateLockState so profile updates
// never clobber in-flight lockout bookkeeping.
func (p *PostgreSQLClientRepository) Update(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, p.db)

	scopesJSON, err := json.Marshal(client.Scopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client scopes")
	}

	query := `UPDATE clients
			  SET secret = $1,
			      name = $2,
			      is_active = $3,
			      scopes = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		client.Secret,
		client.Name,
		client.IsActive,
		scopesJSON,
		client.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update client")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return authDomain.ErrClientNotFound
	}

	return nil
}

// Get retrieves a Client by ID from the PostgreSQL database.
func (p *PostgreSQLClientRepository) Get(
	ctx context.Context,
	clientID uuid.UUID,
) (*authDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret, name, subject, is_active, scopes, failed_attempts, locked_until, created_at
			  FROM clients WHERE id = $1`

	var client authDomain.Client
	var scopesJSON []byte

	err := querier.QueryRowContext(ctx, query, clientID).Scan(
		&client.ID,
		&client.Secret,
		&client.Name,
		&client.Subject,
		&client.IsActive,
		&scopesJSON,
		&client.FailedAttempts,
		&client.LockedUntil,
		&client.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get client")
	}

	if scopesJSON != nil {
		if err := json.Unmarshal(scopesJSON, &client.Scopes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal client scopes")
		}
	}

	return &client, nil
}

// List retrieves clients ordered by ID descending (newest first) with pagination.
// Returns empty slice if no clients found.
func (p *PostgreSQLClientRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*authDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret, name, subject, is_active, scopes, failed_attempts, locked_until, created_at
			  FROM clients
			  ORDER BY id DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list clients")
	}
	defer func() {
		_ = rows.Close()
	}()

	clients := make([]*authDomain.Client, 0)
	for rows.Next() {
		var client authDomain.Client
		var scopesJSON []byte

		err := rows.Scan(
			&client.ID,
			&client.Secret,
			&client.Name,
			&client.Subject,
			&client.IsActive,
			&scopesJSON,
			&client.FailedAttempts,
			&client.LockedUntil,
			&client.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan client")
		}

		if scopesJSON != nil {
			if err := json.Unmarshal(scopesJSON, &client.Scopes); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal client scopes")
			}
		}

		clients = append(clients, &client)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate clients")
	}

	return clients, nil
}

// UpdateLockState sets the failure counter and lockout deadline for a client.
func (p *PostgreSQLClientRepository) UpdateLockState(
	ctx context.Context,
	clientID uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE clients SET failed_attempts = $1, locked_until = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, failedAttempts, lockedUntil, clientID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update client lock state")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return authDomain.ErrClientNotFound
	}

	return nil
}
