package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-attendance-api/internal/models"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
)

const (
	apiKeyLength        = 32
	apiKeyAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxGenerateAttempts = 5
	keyCachePrefix      = "apikey:"
)

type apiKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	FindByKey(ctx context.Context, key string) (*models.APIKey, error)
	FindByID(ctx context.Context, id string) (*models.APIKey, error)
	List(ctx context.Context, page, size int) ([]models.APIKey, int, error)
	Deactivate(ctx context.Context, id string) error
}

type apiKeyCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// APIKeyService issues and validates caller credentials.
type APIKeyService struct {
	repo      apiKeyRepository
	cache     apiKeyCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewAPIKeyService constructs the API key service. cache may be nil.
func NewAPIKeyService(repo apiKeyRepository, cache apiKeyCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *APIKeyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIKeyService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger, metrics: metrics}
}

// GenerateKeyRequest is the key issuance payload.
type GenerateKeyRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
}

// Generate creates a fresh key for a customer, retrying on the unlikely
// unique-key collision.
func (s *APIKeyService) Generate(ctx context.Context, req GenerateKeyRequest) (*models.APIKey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "customer_id is required")
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		raw, err := randomKey(apiKeyLength)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate api key")
		}

		key := &models.APIKey{CustomerID: req.CustomerID, Key: raw, IsActive: true}
		err = s.repo.Create(ctx, key)
		if err == nil {
			return key, nil
		}
		if appErrors.FromError(err).Code == appErrors.ErrConflict.Code {
			s.logger.Warn("api key collision, regenerating", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store api key")
	}
	return nil, appErrors.Clone(appErrors.ErrInternal, "exhausted api key generation attempts")
}

// Authenticate resolves a caller key to its customer id. Unknown and
// inactive keys are both invalid. Positive lookups are cached briefly;
// negative ones are not, so a freshly issued key works immediately.
func (s *APIKeyService) Authenticate(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", appErrors.Clone(appErrors.ErrMissingAPIKey, "")
	}

	cacheKey := keyCachePrefix + key
	if s.cache != nil {
		var customerID string
		start := time.Now()
		err := s.cache.Get(ctx, cacheKey, &customerID)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil && customerID != "" {
			return customerID, nil
		}
	}

	row, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrInvalidAPIKey, "")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify api key")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, row.CustomerID, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache api key lookup", zap.Error(err))
		}
	}
	return row.CustomerID, nil
}

// Verify reports whether a caller key is valid and active.
func (s *APIKeyService) Verify(ctx context.Context, key string) bool {
	_, err := s.Authenticate(ctx, key)
	return err == nil
}

// List returns issued keys, newest first.
func (s *APIKeyService) List(ctx context.Context, page, size int) ([]models.APIKey, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	keys, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list api keys")
	}
	return keys, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Deactivate disables a key and drops its cached lookup.
func (s *APIKeyService) Deactivate(ctx context.Context, id string) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "api key not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load api key")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "api key not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate api key")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, keyCachePrefix+row.Key); err != nil {
			s.logger.Warn("failed to evict api key cache entry", zap.Error(err))
		}
	}
	return nil
}

func randomKey(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = apiKeyAlphabet[int(b)%len(apiKeyAlphabet)]
	}
	return string(buf), nil
}
