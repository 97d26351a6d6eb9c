package handlers

import (
	"errors"
	"net/http"

	"heartgram/internal/common"
	"heartgram/internal/middleware"
	"heartgram/internal/models"
	"heartgram/internal/services"

	"github.com/labstack/echo/v4"
)

// CoupleHandlers serves a couple's management of its own event
type CoupleHandlers struct {
	tenantService       services.TenantService
	accessService       services.AccessService
	provisioningService services.ProvisioningService
}

// NewCoupleHandlers creates a new couple handlers instance
func NewCoupleHandlers(tenantService services.TenantService, accessService services.AccessService, provisioningService services.ProvisioningService) *CoupleHandlers {
	return &CoupleHandlers{
		tenantService:       tenantService,
		accessService:       accessService,
		provisioningService: provisioningService,
	}
}

// CreateEventRequest represents the couple event creation payload
type CreateEventRequest struct {
	EventName   string  `json:"event_name"`
	EventDate   string  `json:"event_date"`
	Description *string `json:"description"`
}

// EventDetailsRequest represents a partial details update
type EventDetailsRequest struct {
	Name        *string `json:"name"`
	EventDate   *string `json:"event_date"`
	Description *string `json:"description"`
}

// Dashboard handles GET /v1/couple/dashboard. A couple without an event gets event: null.
func (h *CoupleHandlers) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	operatorID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendError(c, common.ErrUnauthenticated)
	}

	tenant, err := h.tenantService.GetOwned(ctx, operatorID)
	if errors.Is(err, common.ErrNotFound) {
		return c.JSON(http.StatusOK, map[string]interface{}{"event": nil})
	}
	if err != nil {
		return common.SendError(c, err)
	}

	view, err := h.tenantService.WithCounts(ctx, tenant)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"event": view})
}

// CreateEvent handles POST /v1/couple/event
func (h *CoupleHandlers) CreateEvent(c echo.Context) error {
	ctx := c.Request().Context()
	operatorID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendError(c, common.ErrUnauthenticated)
	}

	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	date, err := common.ParseDate(req.EventDate, "event_date")
	if err != nil {
		return common.SendError(c, err)
	}

	tenant, err := h.provisioningService.CreateOwnTenant(ctx, operatorID, &services.EventDetails{
		Name:          req.EventName,
		ScheduledDate: date,
		Description:   req.Description,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"event": tenant})
}

// UpdateDetails handles PUT /v1/couple/event/details
func (h *CoupleHandlers) UpdateDetails(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	var req EventDetailsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	update, err := detailsUpdate(req.Name, req.EventDate, req.Description)
	if err != nil {
		return common.SendError(c, err)
	}

	return h.respondUpdated(c, tenant, h.tenantService.UpdateDetails(c.Request().Context(), tenant.ID, update))
}

// UpdateBranding handles PUT /v1/couple/event/branding
func (h *CoupleHandlers) UpdateBranding(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	var update models.BrandingUpdate
	if err := c.Bind(&update); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	return h.respondUpdated(c, tenant, h.tenantService.UpdateBranding(c.Request().Context(), tenant.ID, update))
}

// Revoke handles POST /v1/couple/event/revoke
func (h *CoupleHandlers) Revoke(c echo.Context) error {
	ctx := c.Request().Context()
	operatorID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendError(c, common.ErrUnauthenticated)
	}

	tenant, err := h.accessService.SelfRevoke(ctx, operatorID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Event access removed",
		"event":   tenant,
	})
}

func (h *CoupleHandlers) respondUpdated(c echo.Context, tenant *models.Tenant, updateErr error) error {
	if updateErr != nil {
		return common.SendError(c, updateErr)
	}
	updated, err := h.tenantService.GetByID(c.Request().Context(), tenant.ID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"event": updated})
}
