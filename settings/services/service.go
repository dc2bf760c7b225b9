package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/cache"
	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/pkg/log"
	"github.com/fieldcrew/api/internal/types"
	"github.com/fieldcrew/api/settings/models"
	"github.com/fieldcrew/api/settings/repository"
	sharederrors "github.com/fieldcrew/api/shared/errors"
	"github.com/fieldcrew/api/shared/validate"
)

// Service reads and writes organization settings. Reads go through the
// cache when one is configured.
type Service interface {
	Get(ctx context.Context, user types.UserContext) (*models.Settings, error)
	Update(ctx context.Context, user types.UserContext, patch tenant.Record) (*models.Settings, error)
	ReserveInvoiceNumber(ctx context.Context, businessID uuid.UUID) (models.Numbering, error)
}

type service struct {
	repo  repository.Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewService builds the settings service. c may be nil.
func NewService(repo repository.Repository, c cache.Cache, ttl time.Duration) Service {
	return &service{repo: repo, cache: c, ttl: ttl}
}

func cacheKey(businessID uuid.UUID) string {
	return "settings:" + businessID.String()
}

func (s *service) Get(ctx context.Context, user types.UserContext) (*models.Settings, error) {
	if cached, ok := s.fromCache(ctx, user.BusinessID); ok {
		return cached, nil
	}

	settings, err := s.repo.Find(ctx, user.BusinessID)
	if errors.Is(err, tenant.ErrNotFound) {
		defaults := models.Defaults(user.BusinessID)
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	s.store(ctx, settings)
	return &settings, nil
}

func (s *service) Update(ctx context.Context, user types.UserContext, patch tenant.Record) (*models.Settings, error) {
	if !user.CanManage() {
		return nil, sharederrors.ErrForbidden
	}
	if err := validate.Record(patch, models.UpdateRules); err != nil {
		return nil, err
	}

	settings, err := s.repo.Upsert(ctx, user.BusinessID, &user.UserID, patch)
	if err != nil {
		return nil, err
	}
	s.store(ctx, settings)
	return &settings, nil
}

// ReserveInvoiceNumber advances the sequence and drops the cached copy,
// whose next number is now stale.
func (s *service) ReserveInvoiceNumber(ctx context.Context, businessID uuid.UUID) (models.Numbering, error) {
	n, err := s.repo.ReserveInvoiceNumber(ctx, businessID)
	if err != nil {
		return n, err
	}
	s.invalidate(ctx, businessID)
	return n, nil
}

func (s *service) fromCache(ctx context.Context, businessID uuid.UUID) (*models.Settings, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(businessID))
	if err != nil {
		if !errors.Is(err, cache.ErrKeyNotFound) {
			log.WarnWithContext(ctx, "settings cache read failed: %v", err)
		}
		return nil, false
	}
	var settings models.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		log.WarnWithContext(ctx, "discarding corrupt settings cache entry: %v", err)
		s.invalidate(ctx, businessID)
		return nil, false
	}
	return &settings, true
}

func (s *service) store(ctx context.Context, settings models.Settings) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(settings.BusinessID), raw, s.ttl); err != nil {
		log.WarnWithContext(ctx, "settings cache write failed: %v", err)
	}
}

func (s *service) invalidate(ctx context.Context, businessID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(businessID)); err != nil {
		log.WarnWithContext(ctx, "settings cache invalidation failed: %v", err)
	}
}
