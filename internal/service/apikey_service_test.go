package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-attendance-api/internal/models"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
)

type mockKeyRepo struct {
	byKey       map[string]*models.APIKey
	byID        map[string]*models.APIKey
	createErrs  []error
	createCalls int
	deactivated []string
}

func newMockKeyRepo() *mockKeyRepo {
	return &mockKeyRepo{byKey: map[string]*models.APIKey{}, byID: map[string]*models.APIKey{}}
}

func (m *mockKeyRepo) Create(ctx context.Context, key *models.APIKey) error {
	m.createCalls++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	key.ID = "generated-id"
	key.CreatedAt = time.Now()
	m.byKey[key.Key] = key
	m.byID[key.ID] = key
	return nil
}

func (m *mockKeyRepo) FindByKey(ctx context.Context, key string) (*models.APIKey, error) {
	row, ok := m.byKey[key]
	if !ok || !row.IsActive {
		return nil, sql.ErrNoRows
	}
	return row, nil
}

func (m *mockKeyRepo) FindByID(ctx context.Context, id string) (*models.APIKey, error) {
	row, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return row, nil
}

func (m *mockKeyRepo) List(ctx context.Context, page, size int) ([]models.APIKey, int, error) {
	out := make([]models.APIKey, 0, len(m.byID))
	for _, row := range m.byID {
		out = append(out, *row)
	}
	return out, len(out), nil
}

func (m *mockKeyRepo) Deactivate(ctx context.Context, id string) error {
	row, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	row.IsActive = false
	m.deactivated = append(m.deactivated, id)
	return nil
}

type mockKeyCache struct {
	entries map[string]string
	getErr  error
	deleted []string
}

func newMockKeyCache() *mockKeyCache {
	return &mockKeyCache{entries: map[string]string{}}
}

func (m *mockKeyCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	val, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if s, ok := dest.(*string); ok {
		*s = val
	}
	return nil
}

func (m *mockKeyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s, ok := value.(string); ok {
		m.entries[key] = s
	}
	return nil
}

func (m *mockKeyCache) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.entries, key)
	return nil
}

func newKeyService(repo apiKeyRepository, cache apiKeyCache) *APIKeyService {
	return NewAPIKeyService(repo, cache, time.Minute, validator.New(), zap.NewNop(), nil)
}

func TestAPIKeyGenerate(t *testing.T) {
	repo := newMockKeyRepo()
	svc := newKeyService(repo, nil)

	key, err := svc.Generate(context.Background(), GenerateKeyRequest{CustomerID: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme", key.CustomerID)
	assert.Len(t, key.Key, 32)
	assert.True(t, key.IsActive)

	other, err := svc.Generate(context.Background(), GenerateKeyRequest{CustomerID: "acme"})
	require.NoError(t, err)
	assert.NotEqual(t, key.Key, other.Key)
}

func TestAPIKeyGenerateRequiresCustomer(t *testing.T) {
	svc := newKeyService(newMockKeyRepo(), nil)

	_, err := svc.Generate(context.Background(), GenerateKeyRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAPIKeyGenerateRetriesOnCollision(t *testing.T) {
	repo := newMockKeyRepo()
	repo.createErrs = []error{
		appErrors.Clone(appErrors.ErrConflict, "api key already exists"),
		appErrors.Clone(appErrors.ErrConflict, "api key already exists"),
		nil,
	}
	svc := newKeyService(repo, nil)

	key, err := svc.Generate(context.Background(), GenerateKeyRequest{CustomerID: "acme"})
	require.NoError(t, err)
	assert.NotEmpty(t, key.Key)
	assert.Equal(t, 3, repo.createCalls)
}

func TestAPIKeyGenerateExhaustsAttempts(t *testing.T) {
	repo := newMockKeyRepo()
	for i := 0; i < maxGenerateAttempts; i++ {
		repo.createErrs = append(repo.createErrs, appErrors.Clone(appErrors.ErrConflict, "api key already exists"))
	}
	svc := newKeyService(repo, nil)

	_, err := svc.Generate(context.Background(), GenerateKeyRequest{CustomerID: "acme"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Equal(t, maxGenerateAttempts, repo.createCalls)
}

func TestAPIKeyAuthenticate(t *testing.T) {
	repo := newMockKeyRepo()
	cache := newMockKeyCache()
	svc := newKeyService(repo, cache)

	key, err := svc.Generate(context.Background(), GenerateKeyRequest{CustomerID: "acme"})
	require.NoError(t, err)

	customerID, err := svc.Authenticate(context.Background(), key.Key)
	require.NoError(t, err)
	assert.Equal(t, "acme", customerID)

	// Second lookup is served from the cache.
	assert.Equal(t, "acme", cache.entries[keyCachePrefix+key.Key])
	customerID, err = svc.Authenticate(context.Background(), key.Key)
	require.NoError(t, err)
	assert.Equal(t, "acme", customerID)
}

func TestAPIKeyAuthenticateMissing(t *testing.T) {
	svc := newKeyService(newMockKeyRepo(), nil)

	_, err := svc.Authenticate(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingAPIKey.Code, appErrors.FromError(err).Code)
}

func TestAPIKeyAuthenticateUnknownKey(t *testing.T) {
	svc := newKeyService(newMockKeyRepo(), newMockKeyCache())

	_, err := svc.Authenticate(context.Background(), "never-issued")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidAPIKey.Code, appErrors.FromError(err).Code)
	assert.False(t, svc.Verify(context.Background(), "never-issued"))
}

func TestAPIKeyAuthenticateCacheFailureFallsThrough(t *testing.T) {
	repo := newMockKeyRepo()
	cache := newMockKeyCache()
	cache.getErr = errors.New("redis down")
	svc := newKeyService(repo, cache)

	key, err := svc.Generate(context.Background(), GenerateKeyRequest{CustomerID: "acme"})
	require.NoError(t, err)

	customerID, err := svc.Authenticate(context.Background(), key.Key)
	require.NoError(t, err)
	assert.Equal(t, "acme", customerID)
}

func TestAPIKeyDeactivate(t *testing.T) {
	repo := newMockKeyRepo()
	cache := newMockKeyCache()
	svc := newKeyService(repo, cache)

	key, err := svc.Generate(context.Background(), GenerateKeyRequest{CustomerID: "acme"})
	require.NoError(t, err)
	require.True(t, svc.Verify(context.Background(), key.Key))

	require.NoError(t, svc.Deactivate(context.Background(), key.ID))
	assert.Contains(t, cache.deleted, keyCachePrefix+key.Key)
	assert.False(t, svc.Verify(context.Background(), key.Key))
}

func TestAPIKeyDeactivateUnknown(t *testing.T) {
	svc := newKeyService(newMockKeyRepo(), nil)

	err := svc.Deactivate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAPIKeyList(t *testing.T) {
	repo := newMockKeyRepo()
	svc := newKeyService(repo, nil)

	_, err := svc.Generate(context.Background(), GenerateKeyRequest{CustomerID: "acme"})
	require.NoError(t, err)

	keys, pagination, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
