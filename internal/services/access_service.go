package services

import (
	"context"

	"heartgram/internal/models"
	"heartgram/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccessService disables events. Revocation only gates new sessions and
// management actions; nothing is deleted.
type AccessService interface {
	Revoke(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	SelfRevoke(ctx context.Context, operatorID uuid.UUID) (*models.Tenant, error)
}

type accessService struct {
	tenants TenantService
	log     *logger.Logger
}

func NewAccessService(tenants TenantService, log *logger.Logger) AccessService {
	return &accessService{tenants: tenants, log: log}
}

// Revoke marks the event inactive. Revoking an inactive event is a no-op.
// If the write fails the stored status is left as it was.
func (s *accessService) Revoke(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.revoke(ctx, tenant)
}

// SelfRevoke lets a couple disable its own event
func (s *accessService) SelfRevoke(ctx context.Context, operatorID uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenants.GetOwned(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	return s.revoke(ctx, tenant)
}

func (s *accessService) revoke(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	if tenant.Status == models.TenantStatusInactive {
		return tenant, nil
	}

	previous := tenant.Status
	if err := s.tenants.SetStatus(ctx, tenant.ID, models.TenantStatusInactive); err != nil {
		s.log.WithContext(ctx).Error("Event revocation failed, status unchanged",
			zap.String("event_id", tenant.ID.String()),
			zap.String("status", string(previous)),
			zap.Error(err))
		return nil, err
	}

	revoked := *tenant
	revoked.Status = models.TenantStatusInactive
	s.log.WithContext(ctx).Info("Event access revoked",
		zap.String("event_id", tenant.ID.String()),
		zap.String("previous_status", string(previous)))
	return &revoked, nil
}
