package analytics

import (
	"context"
	"time"

	"heartgram/internal/caching"
	"heartgram/internal/models"
	"heartgram/internal/repositories"
	"heartgram/pkg/logger"

	"go.uber.org/zap"
)

// AnalyticsService computes and caches platform statistics for the admin dashboard
type AnalyticsService struct {
	tenantRepo   repositories.TenantRepository
	memberRepo   repositories.MemberRepository
	operatorRepo repositories.OperatorRepository
	cacheService caching.CacheService
	cacheTTL     time.Duration
	log          *logger.Logger
}

func NewAnalyticsService(tenantRepo repositories.TenantRepository, memberRepo repositories.MemberRepository, operatorRepo repositories.OperatorRepository, cacheService caching.CacheService, cacheTTL time.Duration, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		tenantRepo:   tenantRepo,
		memberRepo:   memberRepo,
		operatorRepo: operatorRepo,
		cacheService: cacheService,
		cacheTTL:     cacheTTL,
		log:          log,
	}
}

// PlatformStats returns cached statistics when available, otherwise computes and caches them.
// Cache failures are logged and never fail the call.
func (a *AnalyticsService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	if a.cacheService != nil {
		cached, err := a.cacheService.GetPlatformStats(ctx)
		if err != nil {
			a.log.Warn("Failed to read cached platform stats", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := a.CalculatePlatformStats(ctx)
	if err != nil {
		return nil, err
	}

	if a.cacheService != nil {
		if err := a.cacheService.SetPlatformStats(ctx, stats, a.cacheTTL); err != nil {
			a.log.Warn("Failed to cache platform stats", zap.Error(err))
		}
	}
	return stats, nil
}

// CalculatePlatformStats reads the counts straight from the store
func (a *AnalyticsService) CalculatePlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	byStatus, err := a.tenantRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	guests, err := a.memberRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	couples, err := a.operatorRepo.CountByRole(ctx, models.RoleCouple)
	if err != nil {
		return nil, err
	}

	stats := &models.PlatformStats{
		ActiveEvents:    byStatus[models.TenantStatusActive],
		InactiveEvents:  byStatus[models.TenantStatusInactive],
		CompletedEvents: byStatus[models.TenantStatusCompleted],
		TotalGuests:     guests,
		TotalCouples:    couples,
		GeneratedAt:     time.Now().UTC(),
	}
	for _, n := range byStatus {
		stats.TotalEvents += n
	}
	return stats, nil
}

// RefreshPlatformStats recomputes the statistics and overwrites the cache.
// Called by the background scheduler after the completion sweep.
func (a *AnalyticsService) RefreshPlatformStats(ctx context.Context) error {
	stats, err := a.CalculatePlatformStats(ctx)
	if err != nil {
		return err
	}
	if a.cacheService == nil {
		return nil
	}
	return a.cacheService.SetPlatformStats(ctx, stats, a.cacheTTL)
}
