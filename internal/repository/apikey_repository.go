package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lms-attendance-api/internal/models"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
)

// APIKeyRepository persists caller credentials.
type APIKeyRepository struct {
	db *sqlx.DB
}

// NewAPIKeyRepository constructs an APIKeyRepository.
func NewAPIKeyRepository(db *sqlx.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create inserts a new key row. A unique-key collision surfaces as a
// typed conflict so the caller can regenerate and retry.
func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO api_keys (id, customer_id, api_key, created_at, is_active)
        VALUES (:id, :customer_id, :api_key, :created_at, :is_active)`
	if _, err := r.db.NamedExecContext(ctx, query, key); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "api key collision")
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

// FindByKey fetches an active key row by its key string. Inactive or
// unknown keys return sql.ErrNoRows.
func (r *APIKeyRepository) FindByKey(ctx context.Context, key string) (*models.APIKey, error) {
	const query = `SELECT id, customer_id, api_key, created_at, is_active
        FROM api_keys WHERE api_key = $1 AND is_active = true`
	var row models.APIKey
	if err := r.db.GetContext(ctx, &row, query, key); err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByID fetches a key row by primary key regardless of active state.
func (r *APIKeyRepository) FindByID(ctx context.Context, id string) (*models.APIKey, error) {
	const query = `SELECT id, customer_id, api_key, created_at, is_active
        FROM api_keys WHERE id = $1`
	var row models.APIKey
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns key rows ordered by creation time, newest first.
func (r *APIKeyRepository) List(ctx context.Context, page, size int) ([]models.APIKey, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, customer_id, api_key, created_at, is_active
        FROM api_keys ORDER BY created_at DESC LIMIT %d OFFSET %d`, size, offset)
	var keys []models.APIKey
	if err := r.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, 0, fmt.Errorf("list api keys: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM api_keys"); err != nil {
		return nil, 0, fmt.Errorf("count api keys: %w", err)
	}
	return keys, total, nil
}

// Deactivate flips is_active off. Unknown ids return sql.ErrNoRows.
func (r *APIKeyRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE api_keys SET is_active = false WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate api key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate api key: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
