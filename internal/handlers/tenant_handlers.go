package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"heartgram/internal/analytics"
	"heartgram/internal/common"
	"heartgram/internal/models"
	"heartgram/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers serves the administrator's event management endpoints
type TenantHandlers struct {
	tenantService       services.TenantService
	identityService     services.IdentityService
	accessService       services.AccessService
	provisioningService services.ProvisioningService
	analyticsService    *analytics.AnalyticsService
}

// NewTenantHandlers creates a new tenant handlers instance
func NewTenantHandlers(tenantService services.TenantService, identityService services.IdentityService, accessService services.AccessService, provisioningService services.ProvisioningService, analyticsService *analytics.AnalyticsService) *TenantHandlers {
	return &TenantHandlers{
		tenantService:       tenantService,
		identityService:     identityService,
		accessService:       accessService,
		provisioningService: provisioningService,
		analyticsService:    analyticsService,
	}
}

// ProvisionEventRequest represents the admin event creation payload
type ProvisionEventRequest struct {
	EventName   string  `json:"event_name"`
	CoupleEmail string  `json:"couple_email"`
	CoupleName  string  `json:"couple_name"`
	GroomName   string  `json:"groom_name"`
	BrideName   string  `json:"bride_name"`
	EventDate   string  `json:"event_date"`
	Description *string `json:"description"`
}

// coupleName prefers an explicit name, falling back to "groom & bride"
func (r ProvisionEventRequest) coupleName() string {
	if name := strings.TrimSpace(r.CoupleName); name != "" {
		return name
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{r.GroomName, r.BrideName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " & ")
}

// UpdateEventRequest represents a partial event update by an administrator
type UpdateEventRequest struct {
	Name        *string              `json:"name"`
	EventDate   *string              `json:"event_date"`
	Description *string              `json:"description"`
	Status      *models.TenantStatus `json:"status"`
}

// Dashboard handles GET /v1/admin/dashboard
func (h *TenantHandlers) Dashboard(c echo.Context) error {
	stats, err := h.analyticsService.PlatformStats(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ListEvents handles GET /v1/admin/events
func (h *TenantHandlers) ListEvents(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset, err := paginationFromQuery(c)
	if err != nil {
		return common.SendError(c, err)
	}

	tenants, err := h.tenantService.ListAll(ctx, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}

	views := make([]*models.TenantView, 0, len(tenants))
	for _, tenant := range tenants {
		view, err := h.tenantService.WithCounts(ctx, tenant)
		if err != nil {
			return common.SendError(c, err)
		}
		views = append(views, view)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": views,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateEvent handles POST /v1/admin/events: provisions a couple and its event
func (h *TenantHandlers) CreateEvent(c echo.Context) error {
	var req ProvisionEventRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	date, err := common.ParseDate(req.EventDate, "event_date")
	if err != nil {
		return common.SendError(c, err)
	}

	result, err := h.provisioningService.ProvisionCouple(c.Request().Context(), &services.ProvisionCoupleRequest{
		CoupleEmail: req.CoupleEmail,
		CoupleName:  req.coupleName(),
		Event: services.EventDetails{
			Name:          req.EventName,
			ScheduledDate: date,
			Description:   req.Description,
		},
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// GetEvent handles GET /v1/admin/events/:id
func (h *TenantHandlers) GetEvent(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	tenant, err := h.tenantService.GetByID(ctx, id)
	if err != nil {
		return common.SendError(c, err)
	}
	view, err := h.tenantService.WithCounts(ctx, tenant)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateEvent handles PUT /v1/admin/events/:id
func (h *TenantHandlers) UpdateEvent(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	details, err := detailsUpdate(req.Name, req.EventDate, req.Description)
	if err != nil {
		return common.SendError(c, err)
	}
	if details.Empty() && req.Status == nil {
		return common.SendError(c, fmt.Errorf("%w: nothing to update", common.ErrValidation))
	}

	if !details.Empty() {
		if err := h.tenantService.UpdateDetails(ctx, id, details); err != nil {
			return common.SendError(c, err)
		}
	}
	if req.Status != nil {
		if err := h.tenantService.SetStatus(ctx, id, *req.Status); err != nil {
			return common.SendError(c, err)
		}
	}

	tenant, err := h.tenantService.GetByID(ctx, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// RevokeEvent handles POST /v1/admin/events/:id/revoke
func (h *TenantHandlers) RevokeEvent(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	tenant, err := h.accessService.Revoke(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Event access removed",
		"event":   tenant,
	})
}

// ListEventGuests handles GET /v1/admin/events/:id/guests
func (h *TenantHandlers) ListEventGuests(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	if _, err := h.tenantService.GetByID(ctx, id); err != nil {
		return common.SendError(c, err)
	}

	members, err := h.identityService.ListMembers(ctx, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"guests": members})
}

func paginationFromQuery(c echo.Context) (int, int, error) {
	limit, offset := 0, 0
	var err error
	if v := c.QueryParam("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: limit must be a number", common.ErrValidation)
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: offset must be a number", common.ErrValidation)
		}
	}
	return common.ValidatePaginationParams(limit, offset)
}

// detailsUpdate converts wire fields into a partial update. An empty date string clears the date.
func detailsUpdate(name, eventDate, description *string) (models.DetailsUpdate, error) {
	update := models.DetailsUpdate{Name: name, Description: description}
	if eventDate != nil {
		if strings.TrimSpace(*eventDate) == "" {
			update.ClearScheduledDate = true
			return update, nil
		}
		date, err := common.ParseDate(*eventDate, "event_date")
		if err != nil {
			return update, err
		}
		update.ScheduledDate = date
	}
	return update, nil
}
