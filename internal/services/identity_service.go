package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"heartgram/internal/common"
	"heartgram/internal/models"
	"heartgram/internal/repositories"

	"github.com/google/uuid"
)

const minOperatorSecretLength = 6

// IdentityService stores operators and guests with hashed secrets.
// Reads are not tenant-filtered here; callers scope them.
type IdentityService interface {
	CreateOperator(ctx context.Context, email, secret string, role models.Role, name string) (*models.Operator, error)
	CreateMember(ctx context.Context, tenantID uuid.UUID, name, email, secret string, phone *string) (*models.Member, error)
	FindOperatorByCredentials(ctx context.Context, email, secret string, role *models.Role) (*models.Operator, error)
	FindMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	GetOperator(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]*models.Member, error)
	SetMemberSecretHash(ctx context.Context, memberID uuid.UUID, hash string) error
	VerifyMemberSecret(member *models.Member, secret string) bool
}

type identityService struct {
	operatorRepo repositories.OperatorRepository
	memberRepo   repositories.MemberRepository
	hasher       *Hasher
}

func NewIdentityService(operatorRepo repositories.OperatorRepository, memberRepo repositories.MemberRepository, hasher *Hasher) IdentityService {
	return &identityService{
		operatorRepo: operatorRepo,
		memberRepo:   memberRepo,
		hasher:       hasher,
	}
}

func (s *identityService) CreateOperator(ctx context.Context, email, secret string, role models.Role, name string) (*models.Operator, error) {
	email = common.NormalizeEmail(email)
	if err := common.ValidateEmail(email, "email"); err != nil {
		return nil, err
	}
	if !role.IsOperator() {
		return nil, fmt.Errorf("%w: role must be admin or couple", common.ErrValidation)
	}
	if len(secret) < minOperatorSecretLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minOperatorSecretLength)
	}
	if err := ValidateSecretLength(secret); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: hash secret: %v", common.ErrInternal, err)
	}

	operator := &models.Operator{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         name,
	}
	if err := s.operatorRepo.Create(ctx, operator); err != nil {
		return nil, err
	}
	return operator, nil
}

// CreateMember provisions a guest. Email uniqueness is global and enforced by the store.
func (s *identityService) CreateMember(ctx context.Context, tenantID uuid.UUID, name, email, secret string, phone *string) (*models.Member, error) {
	name = strings.TrimSpace(name)
	email = common.NormalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if err := common.ValidateEmail(email, "email"); err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is required", common.ErrValidation)
	}
	if err := ValidateSecretLength(secret); err != nil {
		return nil, err
	}
	if phone != nil {
		trimmed := strings.TrimSpace(*phone)
		if trimmed == "" {
			phone = nil
		} else {
			phone = &trimmed
		}
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: hash secret: %v", common.ErrInternal, err)
	}

	member := &models.Member{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// FindOperatorByCredentials returns ErrNotFound for an unknown email, a wrong
// secret or a role mismatch alike.
func (s *identityService) FindOperatorByCredentials(ctx context.Context, email, secret string, role *models.Role) (*models.Operator, error) {
	operator, err := s.operatorRepo.GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.CompareDummy(secret)
			return nil, fmt.Errorf("%w: operator", common.ErrNotFound)
		}
		return nil, err
	}

	if err := s.hasher.Compare(operator.PasswordHash, secret); err != nil {
		return nil, fmt.Errorf("%w: operator", common.ErrNotFound)
	}
	if role != nil && operator.Role != *role {
		return nil, fmt.Errorf("%w: operator", common.ErrNotFound)
	}
	return operator, nil
}

func (s *identityService) FindMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.memberRepo.GetByEmail(ctx, common.NormalizeEmail(email))
}

func (s *identityService) GetOperator(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	return s.operatorRepo.GetByID(ctx, id)
}

func (s *identityService) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]*models.Member, error) {
	return s.memberRepo.ListByTenant(ctx, tenantID)
}

func (s *identityService) SetMemberSecretHash(ctx context.Context, memberID uuid.UUID, hash string) error {
	return s.memberRepo.UpdatePasswordHash(ctx, memberID, hash)
}

func (s *identityService) VerifyMemberSecret(member *models.Member, secret string) bool {
	return s.hasher.Compare(member.PasswordHash, secret) == nil
}
