// Package postgresql implements capability grant persistence for PostgreSQL,
// using native UUID and JSONB types with transaction support via database.GetTx().
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	capDomain "github.com/sovereignos/guard/internal/capability/domain"
	"github.com/sovereignos/guard/internal/database"
	apperrors "github.com/sovereignos/guard/internal/errors"
)

// PostgreSQLGrantRepository implements Grant persistence for PostgreSQL.
// Constraints are stored as JSONB; the capability ID carries a unique index,
// so a replayed insert fails instead of shadowing the original grant.
type PostgreSQLGrantRepository struct {
	db *sql.DB
}

// NewPostgreSQLGrantRepository creates a new PostgreSQL Grant repository.
func NewPostgreSQLGrantRepository(db *sql.DB) *PostgreSQLGrantRepository {
	return &PostgreSQLGrantRepository{db: db}
}

// Create inserts a new Grant into the PostgreSQL database.
func (p *PostgreSQLGrantRepository) Create(ctx context.Context, grant *capDomain.Grant) error {
	querier := database.GetTx(ctx, p.db)

	constraintsJSON, err := json.Marshal(grant.Constraints)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal grant constraints")
	}

	query := `INSERT INTO grants
			  (id, capability_id, subject, action, resource, constraints,
			   issued_at, expires_at, issuer, signature, uses_remaining, parent_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = querier.ExecContext(
		ctx,
		query,
		grant.ID,
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

// GetByCapabilityID retrieves a Grant by capability ID from the PostgreSQL database.
func (p *PostgreSQLGrantRepository) GetByCapabilityID(
	ctx context.Context,
	capabilityID string,
) (*capDomain.Grant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, capability_id, subject, action, resource, constraints,
					 issued_at, expires_at, issuer, signature, uses_remaining, parent_id, created_at
			  FROM grants WHERE capability_id = $1`

	var grant capDomain.Grant
	var action string
	var constraintsJSON []byte

	err := querier.QueryRowContext(ctx, query, capabilityID).Scan(
		&grant.ID,
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
func (p *PostgreSQLGrantRepository) DecrementUses(
	ctx context.Context,
	capabilityID string,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE grants
			  SET uses_remaining = uses_remaining - 1
			  WHERE capability_id = $1 AND uses_remaining > 0`

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
func (p *PostgreSQLGrantRepository) DeleteExpired(
	ctx context.Context,
	before time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM grants WHERE expires_at < $1`

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
