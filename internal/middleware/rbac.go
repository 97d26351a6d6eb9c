package middleware

import (
	"context"
	"fmt"
	"slices"

	"heartgram/internal/common"
	"heartgram/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantContextKey is where the resolved event is stored on the echo context
const TenantContextKey = "tenant"

// TenantResolver loads events for authorization checks
type TenantResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetOwned(ctx context.Context, ownerID uuid.UUID) (*models.Tenant, error)
}

// RBACMiddleware enforces roles and event scope. Event status is read from the
// store on every request so a revocation applies to tokens already issued.
type RBACMiddleware struct {
	tenants TenantResolver
}

func NewRBACMiddleware(tenants TenantResolver) *RBACMiddleware {
	return &RBACMiddleware{tenants: tenants}
}

// RequireRole allows only tokens carrying one of roles
func (m *RBACMiddleware) RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return common.SendError(c, common.ErrUnauthenticated)
			}
			if !slices.Contains(roles, claims.Role) {
				return common.SendError(c, fmt.Errorf("%w: insufficient role", common.ErrForbidden))
			}
			return next(c)
		}
	}
}

// CoupleTenant resolves the calling couple's event. With requireActive set,
// only active events pass.
func (m *RBACMiddleware) CoupleTenant(requireActive bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			operatorID, ok := common.GetUserIDFromContext(ctx)
			if !ok {
				return common.SendError(c, common.ErrUnauthenticated)
			}

			tenant, err := m.tenants.GetOwned(ctx, operatorID)
			if err != nil {
				return common.SendError(c, err)
			}
			if requireActive && tenant.Status != models.TenantStatusActive {
				return common.SendError(c, fmt.Errorf("%w: event is %s", common.ErrForbidden, tenant.Status))
			}

			setTenant(c, tenant)
			return next(c)
		}
	}
}

// GuestTenant loads the event named in a guest token and refuses inactive events
func (m *RBACMiddleware) GuestTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return common.SendError(c, fmt.Errorf("%w: token carries no event", common.ErrForbidden))
			}

			tenant, err := m.tenants.GetByID(ctx, tenantID)
			if err != nil {
				return common.SendError(c, err)
			}
			if tenant.Status == models.TenantStatusInactive {
				return common.SendError(c, fmt.Errorf("%w: event access has been revoked", common.ErrForbidden))
			}

			setTenant(c, tenant)
			return next(c)
		}
	}
}

func setTenant(c echo.Context, tenant *models.Tenant) {
	c.Set(TenantContextKey, tenant)
	ctx := context.WithValue(c.Request().Context(), common.TenantIDKey, tenant.ID)
	c.SetRequest(c.Request().WithContext(ctx))
}

// TenantFromContext returns the event resolved by CoupleTenant or GuestTenant
func TenantFromContext(c echo.Context) (*models.Tenant, bool) {
	tenant, ok := c.Get(TenantContextKey).(*models.Tenant)
	return tenant, ok
}
