package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
)

const (
	catalogListCacheKey    = "catalog:templates"
	catalogItemCacheKey    = "catalog:template:%s"
	defaultCatalogCacheTTL = 10 * time.Minute
)

type templateStore interface {
	List(ctx context.Context) ([]models.ReportTemplate, error)
	GetByID(ctx context.Context, id string) (*models.ReportTemplate, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// CatalogService serves the immutable report template catalog with
// cache-aside reads. A cold cache falls through to Postgres; cache failures
// degrade to direct reads rather than erroring.
type CatalogService struct {
	repo    templateStore
	cache   catalogCache
	metrics cacheObserver
	logger  *zap.Logger
	ttl     time.Duration
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(repo templateStore, cache catalogCache, metrics cacheObserver, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCatalogCacheTTL
	}
	return &CatalogService{repo: repo, cache: cache, metrics: metrics, logger: logger, ttl: ttl}
}

// List returns every template in the catalog.
func (s *CatalogService) List(ctx context.Context) ([]models.ReportTemplate, error) {
	var cached []models.ReportTemplate
	if s.lookupCache(ctx, catalogListCacheKey, &cached) {
		return cached, nil
	}

	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template catalog")
	}
	s.storeCache(ctx, catalogListCacheKey, templates)
	return templates, nil
}

// Get returns one template by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.ReportTemplate, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template id required")
	}
	key := fmt.Sprintf(catalogItemCacheKey, id)

	var cached models.ReportTemplate
	if s.lookupCache(ctx, key, &cached) {
		return &cached, nil
	}

	tpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	s.storeCache(ctx, key, tpl)
	return tpl, nil
}

func (s *CatalogService) lookupCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	start := time.Now()
	err := s.cache.Get(ctx, key, dest)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Sugar().Warnw("catalog cache read failed", "key", key, "error", err)
	}
	return hit
}

func (s *CatalogService) storeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Sugar().Warnw("catalog cache write failed", "key", key, "error", err)
	}
}
