package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// APIKeyRepository implements auth.APIKeyStore for SQLite
type APIKeyRepository struct {
	db DBTX
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db DBTX) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// CreateAPIKey stores a hashed key
func (r *APIKeyRepository) CreateAPIKey(ctx context.Context, key *auth.APIKey) error {
	query := `
		INSERT INTO api_keys (key_hash, actor_id, actor_name, role, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		key.Hash,
		key.ActorID,
		key.ActorName,
		key.Role,
		key.Description,
		ts(key.CreatedAt),
	)
	return translateError(err, "failed to create api key")
}

// GetAPIKey looks a key up by hash
func (r *APIKeyRepository) GetAPIKey(ctx context.Context, hash string) (*auth.APIKey, error) {
	query := `
		SELECT key_hash, actor_id, actor_name, role, description, created_at, last_used
		FROM api_keys
		WHERE key_hash = ?
	`
	var (
		key        auth.APIKey
		createdRaw string
		lastUsed   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&key.Hash,
		&key.ActorID,
		&key.ActorName,
		&key.Role,
		&key.Description,
		&createdRaw,
		&lastUsed,
	)
	if err != nil {
		return nil, translateError(err, "failed to get api key")
	}
	if key.CreatedAt, err = parseTS(createdRaw); err != nil {
		return nil, err
	}
	if key.LastUsed, err = parseNullTS(lastUsed); err != nil {
		return nil, err
	}
	return &key, nil
}

// TouchAPIKey records the last use of a key
func (r *APIKeyRepository) TouchAPIKey(ctx context.Context, hash string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, ts(at), hash)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
