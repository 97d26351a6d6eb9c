package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heartgram/internal/caching"
	"heartgram/internal/common"
	"heartgram/internal/models"
	"heartgram/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService verifies credentials and issues stateless session tokens
type AuthService interface {
	LoginOperator(ctx context.Context, email, secret string, role models.Role) (*models.TokenResponse, error)
	LoginMember(ctx context.Context, code, email, secret string) (*models.TokenResponse, error)
	GenerateToken(subjectID uuid.UUID, role models.Role, tenantID *uuid.UUID) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
}

// TokenClaims represents JWT claims. TenantID is only set for guests.
type TokenClaims struct {
	Role     models.Role `json:"role"`
	TenantID string      `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID parses the subject claim
func (c *TokenClaims) SubjectID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Tenant returns the tenant scope carried by the token, if any
func (c *TokenClaims) Tenant() (uuid.UUID, bool) {
	if c.TenantID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.TenantID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

type AuthConfig struct {
	Secret          string
	TTL             time.Duration
	Issuer          string
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

type authService struct {
	identity IdentityService
	tenants  TenantService
	hasher   *Hasher
	cacheSvc caching.CacheService
	cfg      AuthConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthService creates a new authentication service. cacheSvc may be nil,
// which disables login throttling.
func NewAuthService(identity IdentityService, tenants TenantService, hasher *Hasher, cacheSvc caching.CacheService, cfg AuthConfig, log *logger.Logger) AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &authService{
		identity: identity,
		tenants:  tenants,
		hasher:   hasher,
		cacheSvc: cacheSvc,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// LoginOperator authenticates an admin or couple. A couple whose event has been
// revoked is refused.
func (s *authService) LoginOperator(ctx context.Context, email, secret string, role models.Role) (*models.TokenResponse, error) {
	if !role.IsOperator() {
		return nil, fmt.Errorf("%w: unsupported role %q", common.ErrValidation, role)
	}
	limitKey := "login:" + string(role) + ":" + common.NormalizeEmail(email)
	if err := s.checkRateLimit(ctx, limitKey); err != nil {
		return nil, err
	}

	operator, err := s.identity.FindOperatorByCredentials(ctx, email, secret, &role)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.recordFailure(ctx, limitKey)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if role == models.RoleCouple {
		tenant, err := s.tenants.GetOwned(ctx, operator.ID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			// A couple without an event may still sign in and create one
		case err != nil:
			return nil, err
		case tenant.Status == models.TenantStatusInactive:
			return nil, fmt.Errorf("%w: event access has been revoked", common.ErrForbidden)
		}
	}

	s.resetRateLimit(ctx, limitKey)
	s.log.WithContext(ctx).Info("Operator signed in",
		zap.String("operator_id", operator.ID.String()),
		zap.String("role", string(role)))

	return s.GenerateToken(operator.ID, role, nil)
}

// LoginMember authenticates a guest against the event identified by code using
// the guest's own secret.
func (s *authService) LoginMember(ctx context.Context, code, email, secret string) (*models.TokenResponse, error) {
	limitKey := "login:guest:" + common.NormalizeEmail(email)
	if err := s.checkRateLimit(ctx, limitKey); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.recordFailure(ctx, limitKey)
			return nil, common.ErrInvalidCode
		}
		return nil, err
	}
	member, err := s.identity.FindMemberByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if member == nil || member.TenantID != tenant.ID {
		s.hasher.CompareDummy(secret)
		s.recordFailure(ctx, limitKey)
		return nil, common.ErrInvalidCredentials
	}
	if !s.identity.VerifyMemberSecret(member, secret) {
		s.recordFailure(ctx, limitKey)
		return nil, common.ErrInvalidCredentials
	}
	// Checked after the credentials so the event's status is only disclosed to its guests
	if tenant.Status == models.TenantStatusInactive {
		return nil, fmt.Errorf("%w: event access has been revoked", common.ErrForbidden)
	}

	s.resetRateLimit(ctx, limitKey)
	s.log.WithContext(ctx).Info("Guest signed in",
		zap.String("member_id", member.ID.String()),
		zap.String("tenant_id", tenant.ID.String()))

	return s.GenerateToken(member.ID, models.RoleGuest, &tenant.ID)
}

// GenerateToken signs an HS256 token valid for the configured TTL
func (s *authService) GenerateToken(subjectID uuid.UUID, role models.Role, tenantID *uuid.UUID) (*models.TokenResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TTL)
	tokenID := uuid.NewString()

	claims := TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   subjectID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}
	if tenantID != nil {
		claims.TenantID = tenantID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign JWT: %v", common.ErrInternal, err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.cfg.TTL.Seconds()),
		ExpiresAt:   expiresAt,
		Role:        role,
		UserID:      subjectID.String(),
		TenantID:    claims.TenantID,
		TokenID:     tokenID,
		IssuedAt:    now,
	}, nil
}

// ValidateToken checks signature, algorithm, issuer and expiry.
// Any failure is reported as ErrUnauthenticated.
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: token validation failed", common.ErrUnauthenticated)
	}

	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", common.ErrUnauthenticated)
	}
	if _, err := claims.SubjectID(); err != nil {
		return nil, fmt.Errorf("%w: malformed subject", common.ErrUnauthenticated)
	}
	if _, ok := claims.Tenant(); claims.Role == models.RoleGuest && !ok {
		return nil, fmt.Errorf("%w: guest token without event scope", common.ErrUnauthenticated)
	}
	return claims, nil
}

func (s *authService) checkRateLimit(ctx context.Context, key string) error {
	if s.cacheSvc == nil || s.cfg.LoginRateLimit <= 0 {
		return nil
	}
	limited, err := s.cacheSvc.IsRateLimited(ctx, key, s.cfg.LoginRateLimit)
	if err != nil {
		s.log.Warn("Login rate limit check failed", zap.Error(err))
		return nil
	}
	if limited {
		return common.ErrRateLimited
	}
	return nil
}

func (s *authService) recordFailure(ctx context.Context, key string) {
	if s.cacheSvc == nil || s.cfg.LoginRateLimit <= 0 {
		return
	}
	if err := s.cacheSvc.IncrementRateLimit(ctx, key, s.cfg.LoginRateWindow); err != nil {
		s.log.Warn("Failed to record login failure", zap.Error(err))
	}
}

func (s *authService) resetRateLimit(ctx context.Context, key string) {
	if s.cacheSvc == nil || s.cfg.LoginRateLimit <= 0 {
		return
	}
	if err := s.cacheSvc.ResetRateLimit(ctx, key); err != nil {
		s.log.Warn("Failed to reset login rate limit", zap.Error(err))
	}
}
