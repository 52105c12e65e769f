// Package mysql implements auth persistence for MySQL, storing UUIDs as
// BINARY(16) and the flattened scope grant as a JSON array of scope names.
package mysql

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

// MySQLClientRepository implements Client persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLClientRepository struct {
	db *sql.DB
}

// NewMySQLClientRepository creates a new MySQL Client repository.
func NewMySQLClientRepository(db *sql.DB) *MySQLClientRepository {
	return &MySQLClientRepository{db: db}
}

// Create inserts a new Client into the MySQL database using BINARY(16) for UUIDs.
// Uses transaction support via database.GetTx(). Returns an error if UUID/scope
// marshaling or database insertion fails.
func (m *MySQLClientRepository) Create(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, m.db)

	scopesJSON, err := json.Marshal(client.Scopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client scopes")
	}

	query := `INSERT INTO clients
			  (id, secret, name, subject, is_active, scopes, failed_attempts, locked_until, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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

// Update modifies an existing Client in the MySQL database. The lockout
// columns are managed separately through UpdateLockState so profile updates
// never clobber in-flight lockout bookkeeping. Returns ErrClientNotFound if
// the client doesn't exist.
func (m *MySQLClientRepository) Update(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, m.db)

	scopesJSON, err := json.Marshal(client.Scopes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client scopes")
	}

	query := `UPDATE clients
			  SET secret = ?,
			      name = ?,
			      is_active = ?,
			      scopes = ?
			  WHERE id = ?`

	id, err := client.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client id")
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		client.Secret,
		client.Name,
		client.IsActive,
		scopesJSON,
		id,
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

// Get retrieves a Client by ID from the MySQL database using BINARY(16) for UUIDs.
// Returns ErrClientNotFound if the client doesn't exist.
func (m *MySQLClientRepository) Get(
	ctx context.Context,
	clientID uuid.UUID,
) (*authDomain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, secret, name, subject, is_active, scopes, failed_attempts, locked_until, created_at
			  FROM clients WHERE id = ?`

	id, err := clientID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal client id")
	}

	var client authDomain.Client
	var idBytes []byte
	var scopesJSON []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
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

	if err := client.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal client id")
	}

	if scopesJSON != nil {
		if err := json.Unmarshal(scopesJSON, &client.Scopes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal client scopes")
		}
	}

	return &client, nil
}

// List retrieves clients ordered by ID descending (newest first) with
// pagination. Returns empty slice if no clients found.
func (m *MySQLClientRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*authDomain.Client, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, secret, name, subject, is_active, scopes, failed_attempts, locked_until, created_at
			  FROM clients
			  ORDER BY id DESC
			  LIMIT ? OFFSET ?`

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
		var idBytes []byte
		var scopesJSON []byte

		err := rows.Scan(
			&idBytes,
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

		if err := client.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal client id")
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
// Returns ErrClientNotFound if the client doesn't exist.
func (m *MySQLClientRepository) UpdateLockState(
	ctx context.Context,
	clientID uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := clientID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client id")
	}

	query := `UPDATE clients SET failed_attempts = ?, locked_until = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, failedAttempts, lockedUntil, id)
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
