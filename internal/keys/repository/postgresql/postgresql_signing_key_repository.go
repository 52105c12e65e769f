// Package postgresql implements signing key persistence for PostgreSQL,
// using native UUID and BYTEA types with transaction support via
// database.GetTx().
package postgresql

import (
	"context"
	"database/sql"

	"github.com/sovereignos/guard/internal/database"
	apperrors "github.com/sovereignos/guard/internal/errors"
	keysDomain "github.com/sovereignos/guard/internal/keys/domain"
)

// PostgreSQLSigningKeyRepository implements SigningKeyRepository for PostgreSQL.
type PostgreSQLSigningKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLSigningKeyRepository creates a PostgreSQL signing key repository.
func NewPostgreSQLSigningKeyRepository(db *sql.DB) *PostgreSQLSigningKeyRepository {
	return &PostgreSQLSigningKeyRepository{db: db}
}

// Create inserts a new signing key.
func (p *PostgreSQLSigningKeyRepository) Create(
	ctx context.Context, key *keysDomain.SigningKey,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO signing_keys
			  (id, issuer, version, algorithm, public_key, encrypted_seed, nonce,
			   master_key_id, is_active, created_at, retired_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.ID,
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

// Update persists a signing key's activation state. Seed and public key are
// immutable once minted, so only the retirement columns are written.
func (p *PostgreSQLSigningKeyRepository) Update(
	ctx context.Context, key *keysDomain.SigningKey,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signing_keys SET is_active = $1, retired_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, key.IsActive, key.RetiredAt, key.ID)
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
func (p *PostgreSQLSigningKeyRepository) GetActive(
	ctx context.Context, issuer string,
) (*keysDomain.SigningKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, issuer, version, algorithm, public_key, encrypted_seed, nonce,
			         master_key_id, is_active, created_at, retired_at
			  FROM signing_keys
			  WHERE issuer = $1 AND is_active = true
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
func (p *PostgreSQLSigningKeyRepository) ListByIssuer(
	ctx context.Context, issuer string,
) ([]*keysDomain.SigningKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, issuer, version, algorithm, public_key, encrypted_seed, nonce,
			         master_key_id, is_active, created_at, retired_at
			  FROM signing_keys
			  WHERE issuer = $1
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
	var retiredAt sql.NullTime

	err := row.Scan(
		&key.ID,
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

	if retiredAt.Valid {
		key.RetiredAt = &retiredAt.Time
	}
	return &key, nil
}
