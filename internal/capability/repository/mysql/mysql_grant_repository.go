// Package mysql implements capability grant persistence for MySQL, using
// BINARY(16) for the row ID and JSON for constraints with transaction support
// via database.GetTx().
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	"github.com/sovereignos/guard/internal/database"
	apperrors "github.com/sovereignos/guard/internal/errors"
)

// MySQLGrantRepository implements Grant persistence for MySQL.
type MySQLGrantRepository struct {
	db *sql.DB
}

// NewMySQLGrantRepository creates a new MySQL Grant repository.
func NewMySQLGrantRepository(db *sql.DB) *MySQLGrantRepository {
	return &MySQLGrantRepository{db: db}
}

// Create inserts a new Grant into the MySQL database.
func (m *MySQLGrantRepository) Create(ctx context.Context, grant *capDomain.Grant) error {
	querier := database.GetTx(ctx, m.db)

	id, err := grant.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal grant id")
	}

	constraintsJSON, err := json.Marshal(grant.Constraints)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal grant constraints")
	}

	query := `INSERT INTO grants
			  (id, capability_id, subject, action, resource, constraints,
			   issued_at, expires_at, issuer, signature, uses_remaining, parent_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		grant.CapabilityID,
		grant.Subject,
		string(grant.Action),
		grant.Resource,
		constraintsJSON,
		grant.IssuedAt,
		grant.ExpiresAt,
		grant.Issuer,
		grant.Signature,
		grant.UsesRemaining,
		grant.ParentID,
		grant.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create grant")
	}
	return nil
}

// GetByCapabilityID retrieves a Grant by capability ID from the MySQL database.
func (m *MySQLGrantRepository) GetByCapabilityID(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, capability_id, subject, action, resource, constraints,
					 issued_at, expires_at, issuer, signature, uses_remaining, parent_id, created_at
			  FROM grants WHERE capability_id = ?`

	var grant capDomain.Grant
	var id []byte
	var action string
	var constraintsJSON []byte

	err := querier.QueryRowContext(ctx, query, capabilityID).Scan(
		&id,
		&grant.CapabilityID,
		&grant.Subject,
		&action,
		&grant.Resource,
		&constraintsJSON,
		&grant.IssuedAt,
		&grant.ExpiresAt,
		&grant.Issuer,
		&grant.Signature,
		&grant.UsesRemaining,
		&grant.ParentID,
		&grant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, capDomain.ErrGrantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get grant")
	}

	parsed, err := uuid.FromBytes(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse grant id")
	}
	grant.ID = parsed
	grant.Action = capDomain.Action(action)

	if constraintsJSON != nil {
		if err := json.Unmarshal(constraintsJSON, &grant.Constraints); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal grant constraints")
		}
	}

	return &grant, nil
}

// DecrementUses atomically decrements the use counter of a use-limited grant.
// The WHERE clause refuses exhausted, missing, and unlimited grants alike, so
// concurrent consumers can never push the counter below zero.
func (m *MySQLGrantRepository) DecrementUses(
	ctx context.Context,
	capabilityID string,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE grants
			  SET uses_remaining = uses_remaining - 1
			  WHERE capability_id = ? AND uses_remaining > 0`

	result, err := querier.ExecContext(ctx, query, capabilityID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to decrement grant uses")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected, nil
}

// DeleteExpired removes grants that expired before the given instant.
func (m *MySQLGrantRepository) DeleteExpired(
	ctx context.Context,
	before time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM grants WHERE expires_at < ?`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired grants")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected, nil
}
