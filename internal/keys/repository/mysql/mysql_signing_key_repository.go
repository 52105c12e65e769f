// Package mysql implements signing key persistence for MySQL, using
// BINARY(16) for UUIDs and BLOB for sealed seed material with transaction
// support via database.GetTx().
package mysql

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sovereignos/guard/internal/database"
	apperrors "github.com/sovereignos/guard/internal/errors"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// MySQLSigningKeyRepository implements SigningKeyRepository for MySQL.
type MySQLSigningKeyRepository struct {
	db *sql.DB
}

// NewMySQLSigningKeyRepository creates a MySQL signing key repository.
func NewMySQLSigningKeyRepository(db *sql.DB) *MySQLSigningKeyRepository {
	return &MySQLSigningKeyRepository{db: db}
}

// Create inserts a new signing key.
func (m *MySQLSigningKeyRepository) Create(
	ctx context.Context, key *keysDomain.SigningKey,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO signing_keys
			  (id, issuer, version, algorithm, public_key, encrypted_seed, nonce,
			   master_key_id, is_active, created_at, retired_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signing key id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		key.Issuer,
		key.Version,
		key.Algorithm,
		key.PublicKey,
		key.EncryptedSeed,
		key.Nonce,
		key.MasterKeyID,
		key.IsActive,
		key.CreatedAt,
		key.RetiredAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create signing key")
	}
	return nil
}

// Update persists a signing key's activation state.
func (m *MySQLSigningKeyRepository) Update(
	ctx context.Context, key *keysDomain.SigningKey,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE signing_keys SET is_active = ?, retired_at = ? WHERE id = ?`

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signing key id")
	}

	result, err := querier.ExecContext(ctx, query, key.IsActive, key.RetiredAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update signing key")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if affected == 0 {
		return keysDomain.ErrSigningKeyNotFound
	}
	return nil
}

// GetActive returns the issuer's active signing key.
func (m *MySQLSigningKeyRepository) GetActive(
	ctx context.Context, issuer string,
) (*keysDomain.SigningKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, issuer, version, algorithm, public_key, encrypted_seed, nonce,
			         master_key_id, is_active, created_at, retired_at
			  FROM signing_keys
			  WHERE issuer = ? AND is_active = true
			  ORDER BY version DESC
			  LIMIT 1`

	key, err := scanSigningKey(querier.QueryRowContext(ctx, query, issuer))
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, keysDomain.ErrNoActiveSigningKey
		}
		return nil, apperrors.Wrap(err, "failed to get active signing key")
	}
	return key, nil
}

// ListByIssuer returns all of the issuer's keys ordered by version descending.
func (m *MySQLSigningKeyRepository) ListByIssuer(
	ctx context.Context, issuer string,
) ([]*keysDomain.SigningKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, issuer, version, algorithm, public_key, encrypted_seed, nonce,
			         master_key_id, is_active, created_at, retired_at
			  FROM signing_keys
			  WHERE issuer = ?
			  ORDER BY version DESC`

	rows, err := querier.QueryContext(ctx, query, issuer)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list signing keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []*keysDomain.SigningKey
	for rows.Next() {
		key, err := scanSigningKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSigningKey(row rowScanner) (*keysDomain.SigningKey, error) {
	var key keysDomain.SigningKey
	var id []byte
	var retiredAt sql.NullTime

	err := row.Scan(
		&id,
		&key.Issuer,
		&key.Version,
		&key.Algorithm,
		&key.PublicKey,
		&key.EncryptedSeed,
		&key.Nonce,
		&key.MasterKeyID,
		&key.IsActive,
		&key.CreatedAt,
		&retiredAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.FromBytes(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse signing key id")
	}
	key.ID = parsed

	if retiredAt.Valid {
		key.RetiredAt = &retiredAt.Time
	}
	return &key, nil
}
