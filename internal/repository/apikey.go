package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vintora/storefront-api/internal/domain/auth"
)

const findAPIKeySQL = `SELECT id, key_hash, name, user_id, scopes
	FROM api_keys WHERE key_hash = $1`

// ErrAPIKeyNotFound is returned when no key matches the given hash.
var ErrAPIKeyNotFound = errors.New("api key not found")

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository implements auth.Repository backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an identity by the HMAC hash of its API key.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Identity, error) {
	var (
		id     auth.Identity
		stored string
	)
	err := r.pool.QueryRow(ctx, findAPIKeySQL, hash).Scan(
		&id.ID, &stored, &id.Name, &id.UserID, &id.Scopes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	return &id, nil
}
