package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"heartgram/internal/caching"
	"heartgram/internal/common"
	"heartgram/internal/models"
	"heartgram/internal/repositories"
	"heartgram/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCreateAttempts = 3

// TenantService is the registry of events
type TenantService interface {
	Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByCode(ctx context.Context, code string) (*models.Tenant, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Tenant, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	GetOwned(ctx context.Context, ownerID uuid.UUID) (*models.Tenant, error)
	UpdateBranding(ctx context.Context, id uuid.UUID, update models.BrandingUpdate) error
	UpdateDetails(ctx context.Context, id uuid.UUID, update models.DetailsUpdate) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.TenantStatus) error
	WithCounts(ctx context.Context, tenant *models.Tenant) (*models.TenantView, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	generator  *CredentialGenerator
	cache      caching.CacheService
	cacheTTL   time.Duration
	log        *logger.Logger
}

func NewTenantService(tenantRepo repositories.TenantRepository, generator *CredentialGenerator, cache caching.CacheService, cacheTTL time.Duration, log *logger.Logger) TenantService {
	return &tenantService{
		tenantRepo: tenantRepo,
		generator:  generator,
		cache:      cache,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

type CreateTenantRequest struct {
	Name          string
	OwnerID       uuid.UUID
	ScheduledDate *time.Time
	Description   *string
}

// Create allocates a fresh code and stores an active event with default branding.
// An operator may own a single event.
func (s *tenantService) Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: event name is required", common.ErrValidation)
	}
	if err := common.ValidateSingleLine(name, "event name"); err != nil {
		return nil, err
	}
	if req.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", common.ErrValidation)
	}

	owned, err := s.tenantRepo.ListByOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}
	if len(owned) > 0 {
		return nil, fmt.Errorf("%w: operator already owns an event", common.ErrConflict)
	}

	font := models.DefaultFont
	tenant := &models.Tenant{
		ID:            uuid.New(),
		OwnerID:       req.OwnerID,
		Status:        models.TenantStatusActive,
		Name:          name,
		ScheduledDate: req.ScheduledDate,
		Description:   req.Description,
		BrandColor:    models.DefaultBrandColor,
		FontRef:       &font,
		UseTextLogo:   true,
	}

	for attempt := 1; ; attempt++ {
		tenant.Code, err = s.generator.NewTenantCode(ctx)
		if err != nil {
			return nil, err
		}
		err = s.tenantRepo.Create(ctx, tenant)
		if err == nil {
			break
		}
		if !errors.Is(err, repositories.ErrCodeTaken) || attempt >= maxCreateAttempts {
			return nil, err
		}
		s.log.Debug("Event code collided on insert, regenerating", zap.Int("attempt", attempt))
	}

	s.invalidateStats(ctx)
	s.log.WithContext(ctx).Info("Event created",
		zap.String("event_id", tenant.ID.String()),
		zap.String("owner_id", tenant.OwnerID.String()))

	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) GetByCode(ctx context.Context, code string) (*models.Tenant, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != models.TenantCodeLength {
		return nil, fmt.Errorf("%w: event", common.ErrNotFound)
	}
	return s.tenantRepo.GetByCode(ctx, code)
}

func (s *tenantService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Tenant, error) {
	return s.tenantRepo.ListByOwner(ctx, ownerID)
}

func (s *tenantService) ListAll(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.tenantRepo.List(ctx, limit, offset)
}

// GetOwned resolves the operator's event. Returns ErrNotFound when there is none.
func (s *tenantService) GetOwned(ctx context.Context, ownerID uuid.UUID) (*models.Tenant, error) {
	owned, err := s.tenantRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, fmt.Errorf("%w: no event for this account", common.ErrNotFound)
	}
	return owned[0], nil
}

func (s *tenantService) UpdateBranding(ctx context.Context, id uuid.UUID, update models.BrandingUpdate) error {
	if update.Empty() {
		return fmt.Errorf("%w: no branding fields supplied", common.ErrValidation)
	}
	if update.BrandColor != nil {
		if err := common.ValidateHexColor(*update.BrandColor, "primary_color"); err != nil {
			return err
		}
	}
	if err := common.ValidateOptionalString(update.FontRef, "font_name", 100); err != nil {
		return err
	}
	if err := common.ValidateOptionalString(update.LogoRef, "logo_url", 2048); err != nil {
		return err
	}

	if err := s.tenantRepo.UpdateBranding(ctx, id, update); err != nil {
		return err
	}
	s.invalidateView(ctx, id)
	return nil
}

func (s *tenantService) UpdateDetails(ctx context.Context, id uuid.UUID, update models.DetailsUpdate) error {
	if update.Empty() {
		return fmt.Errorf("%w: no detail fields supplied", common.ErrValidation)
	}
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return fmt.Errorf("%w: event name cannot be empty", common.ErrValidation)
		}
		if err := common.ValidateSingleLine(trimmed, "event name"); err != nil {
			return err
		}
		update.Name = &trimmed
	}
	if err := common.ValidateOptionalString(update.Description, "description", 5000); err != nil {
		return err
	}

	if err := s.tenantRepo.UpdateDetails(ctx, id, update); err != nil {
		return err
	}
	s.invalidateView(ctx, id)
	return nil
}

// SetStatus writes the status unconditionally. On a failed write the stored
// status is unchanged and the error is returned.
func (s *tenantService) SetStatus(ctx context.Context, id uuid.UUID, status models.TenantStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrValidation, status)
	}
	if err := s.tenantRepo.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.invalidateView(ctx, id)
	s.invalidateStats(ctx)
	return nil
}

// WithCounts attaches guest and post counts computed at read time. Counts may
// be served from cache for up to the cache TTL.
func (s *tenantService) WithCounts(ctx context.Context, tenant *models.Tenant) (*models.TenantView, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTenantView(ctx, tenant.ID)
		if err != nil {
			s.log.Warn("Event view cache read failed", zap.Error(err))
		} else if cached != nil {
			return &models.TenantView{Tenant: *tenant, GuestCount: cached.GuestCount, PostCount: cached.PostCount}, nil
		}
	}

	guests, err := s.tenantRepo.CountMembers(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.tenantRepo.CountPosts(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	view := &models.TenantView{Tenant: *tenant, GuestCount: guests, PostCount: posts}
	if s.cache != nil {
		if err := s.cache.SetTenantView(ctx, view, s.cacheTTL); err != nil {
			s.log.Warn("Event view cache write failed", zap.Error(err))
		}
	}
	return view, nil
}

func (s *tenantService) invalidateView(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteTenantView(ctx, id); err != nil {
		s.log.Warn("Event view cache invalidation failed", zap.Error(err), zap.String("event_id", id.String()))
	}
}

func (s *tenantService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePlatformStats(ctx); err != nil {
		s.log.Warn("Platform stats cache invalidation failed", zap.Error(err))
	}
}
