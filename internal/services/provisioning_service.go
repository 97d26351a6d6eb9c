package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"heartgram/internal/common"
	"heartgram/internal/models"
	"heartgram/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProvisioningService onboards couples, either by an administrator or by self-registration
type ProvisioningService interface {
	ProvisionCouple(ctx context.Context, req *ProvisionCoupleRequest) (*ProvisionResult, error)
	RegisterCouple(ctx context.Context, email, password, name string) (*models.Operator, *models.TokenResponse, error)
	CreateOwnTenant(ctx context.Context, operatorID uuid.UUID, req *EventDetails) (*models.Tenant, error)
}

// EventDetails describes a new event
type EventDetails struct {
	Name          string
	ScheduledDate *time.Time
	Description   *string
}

type ProvisionCoupleRequest struct {
	CoupleEmail string
	CoupleName  string
	Event       EventDetails
}

type ProvisionResult struct {
	Operator  *models.Operator `json:"couple"`
	Tenant    *models.Tenant   `json:"event"`
	EmailSent bool             `json:"email_sent"`
}

type provisioningService struct {
	identity  IdentityService
	tenants   TenantService
	auth      AuthService
	generator *CredentialGenerator
	mailer    Mailer
	baseURL   string
	log       *logger.Logger
}

func NewProvisioningService(identity IdentityService, tenants TenantService, auth AuthService, generator *CredentialGenerator, mailer Mailer, baseURL string, log *logger.Logger) ProvisioningService {
	return &provisioningService{
		identity:  identity,
		tenants:   tenants,
		auth:      auth,
		generator: generator,
		mailer:    mailer,
		baseURL:   baseURL,
		log:       log,
	}
}

// ProvisionCouple creates a couple account with a generated secret and its
// event, then mails the credentials. A mail failure does not undo anything;
// it is reported through EmailSent.
func (s *provisioningService) ProvisionCouple(ctx context.Context, req *ProvisionCoupleRequest) (*ProvisionResult, error) {
	if err := common.ValidateRequiredString(req.Event.Name, "event_name"); err != nil {
		return nil, err
	}

	secret, err := s.generator.NewSecret(OperatorSecretLength)
	if err != nil {
		return nil, err
	}

	operator, err := s.identity.CreateOperator(ctx, req.CoupleEmail, secret, models.RoleCouple, req.CoupleName)
	if err != nil {
		return nil, err
	}

	// The account stays if event creation fails; the couple can create the event after signing in.
	tenant, err := s.tenants.Create(ctx, &CreateTenantRequest{
		Name:          req.Event.Name,
		OwnerID:       operator.ID,
		ScheduledDate: req.Event.ScheduledDate,
		Description:   req.Event.Description,
	})
	if err != nil {
		return nil, err
	}

	result := &ProvisionResult{Operator: operator, Tenant: tenant}

	msg, err := ComposeCoupleCredentials(s.baseURL, operator, tenant, secret)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.log.WithContext(ctx).Warn("Couple credentials email failed",
			zap.String("operator_id", operator.ID.String()),
			zap.Error(fmt.Errorf("%w: %v", common.ErrDispatchFailure, err)))
	} else {
		result.EmailSent = true
	}

	s.log.WithContext(ctx).Info("Couple provisioned",
		zap.String("operator_id", operator.ID.String()),
		zap.String("event_id", tenant.ID.String()),
		zap.Bool("email_sent", result.EmailSent))

	return result, nil
}

// RegisterCouple creates a couple account from self-registration and signs it in
func (s *provisioningService) RegisterCouple(ctx context.Context, email, password, name string) (*models.Operator, *models.TokenResponse, error) {
	operator, err := s.identity.CreateOperator(ctx, email, password, models.RoleCouple, name)
	if err != nil {
		return nil, nil, err
	}

	token, err := s.auth.GenerateToken(operator.ID, models.RoleCouple, nil)
	if err != nil {
		return nil, nil, err
	}

	s.log.WithContext(ctx).Info("Couple registered", zap.String("operator_id", operator.ID.String()))
	return operator, token, nil
}

// CreateOwnTenant creates the event for a signed-in couple
func (s *provisioningService) CreateOwnTenant(ctx context.Context, operatorID uuid.UUID, req *EventDetails) (*models.Tenant, error) {
	operator, err := s.identity.GetOperator(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if operator.Role != models.RoleCouple {
		return nil, fmt.Errorf("%w: only couples own events", common.ErrForbidden)
	}

	return s.tenants.Create(ctx, &CreateTenantRequest{
		Name:          strings.TrimSpace(req.Name),
		OwnerID:       operator.ID,
		ScheduledDate: req.ScheduledDate,
		Description:   req.Description,
	})
}
