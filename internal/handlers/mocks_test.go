package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"heartgram/internal/common"
	"heartgram/internal/middleware"
	"heartgram/internal/models"
	"heartgram/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) LoginOperator(ctx context.Context, email, secret string, role models.Role) (*models.TokenResponse, error) {
	args := m.Called(ctx, email, secret, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) LoginMember(ctx context.Context, code, email, secret string) (*models.TokenResponse, error) {
	args := m.Called(ctx, code, email, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) GenerateToken(subjectID uuid.UUID, role models.Role, tenantID *uuid.UUID) (*models.TokenResponse, error) {
	args := m.Called(subjectID, role, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*services.TokenClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

type MockProvisioningService struct {
	mock.Mock
}

func (m *MockProvisioningService) ProvisionCouple(ctx context.Context, req *services.ProvisionCoupleRequest) (*services.ProvisionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProvisionResult), args.Error(1)
}

func (m *MockProvisioningService) RegisterCouple(ctx context.Context, email, password, name string) (*models.Operator, *models.TokenResponse, error) {
	args := m.Called(ctx, email, password, name)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Operator), args.Get(1).(*models.TokenResponse), args.Error(2)
}

func (m *MockProvisioningService) CreateOwnTenant(ctx context.Context, operatorID uuid.UUID, req *services.EventDetails) (*models.Tenant, error) {
	args := m.Called(ctx, operatorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Create(ctx context.Context, req *services.CreateTenantRequest) (*models.Tenant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) GetByCode(ctx context.Context, code string) (*models.Tenant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Tenant, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantService) ListAll(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantService) GetOwned(ctx context.Context, ownerID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) UpdateBranding(ctx context.Context, id uuid.UUID, update models.BrandingUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *MockTenantService) UpdateDetails(ctx context.Context, id uuid.UUID, update models.DetailsUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *MockTenantService) SetStatus(ctx context.Context, id uuid.UUID, status models.TenantStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockTenantService) WithCounts(ctx context.Context, tenant *models.Tenant) (*models.TenantView, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantView), args.Error(1)
}

type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) Revoke(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockAccessService) SelfRevoke(ctx context.Context, operatorID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) CreateOperator(ctx context.Context, email, secret string, role models.Role, name string) (*models.Operator, error) {
	args := m.Called(ctx, email, secret, role, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func (m *MockIdentityService) CreateMember(ctx context.Context, tenantID uuid.UUID, name, email, secret string, phone *string) (*models.Member, error) {
	args := m.Called(ctx, tenantID, name, email, secret, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockIdentityService) FindOperatorByCredentials(ctx context.Context, email, secret string, role *models.Role) (*models.Operator, error) {
	args := m.Called(ctx, email, secret, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func (m *MockIdentityService) FindMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockIdentityService) GetOperator(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func (m *MockIdentityService) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]*models.Member, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockIdentityService) SetMemberSecretHash(ctx context.Context, memberID uuid.UUID, hash string) error {
	return m.Called(ctx, memberID, hash).Error(0)
}

func (m *MockIdentityService) VerifyMemberSecret(member *models.Member, secret string) bool {
	return m.Called(member, secret).Bool(0)
}

type MockRosterService struct {
	mock.Mock
}

func (m *MockRosterService) Import(ctx context.Context, tenantID uuid.UUID, payload []byte) (*models.ImportResult, error) {
	args := m.Called(ctx, tenantID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportResult), args.Error(1)
}

type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) Dispatch(ctx context.Context, tenant *models.Tenant, sharedSecret string, memberIDs []uuid.UUID) (*models.DispatchResult, error) {
	args := m.Called(ctx, tenant, sharedSecret, memberIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DispatchResult), args.Error(1)
}

type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) Upload(ctx context.Context, tenantID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (*services.Asset, error) {
	args := m.Called(ctx, tenantID, filename, reader, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Asset), args.Error(1)
}

func (m *MockAssetStore) List(ctx context.Context, tenantID uuid.UUID) ([]*services.Asset, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*services.Asset), args.Error(1)
}

func (m *MockAssetStore) Delete(ctx context.Context, tenantID uuid.UUID, key string) error {
	return m.Called(ctx, tenantID, key).Error(0)
}

func (m *MockAssetStore) EnsureBucket(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAssetStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// withTenant stands in for the tenant-resolving middleware
func withTenant(tenant *models.Tenant) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.TenantContextKey, tenant)
			return next(c)
		}
	}
}

// withUser stands in for JWT auth by placing the caller id on the request context
func withUser(id uuid.UUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func activeTenant() *models.Tenant {
	return &models.Tenant{
		ID:         uuid.New(),
		Code:       "AB12CD34",
		OwnerID:    uuid.New(),
		Status:     models.TenantStatusActive,
		Name:       "Sam & Alex",
		BrandColor: models.DefaultBrandColor,
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
