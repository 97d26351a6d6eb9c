package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"heartgram/internal/common"
	"heartgram/internal/middleware"
	"heartgram/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// GuestHandlers serves the guest roster for couples and the event profile for guests
type GuestHandlers struct {
	identityService   services.IdentityService
	rosterService     services.RosterService
	invitationService services.InvitationService
	importMaxBytes    int64
}

// NewGuestHandlers creates a new guest handlers instance
func NewGuestHandlers(identityService services.IdentityService, rosterService services.RosterService, invitationService services.InvitationService, importMaxBytes int64) *GuestHandlers {
	return &GuestHandlers{
		identityService:   identityService,
		rosterService:     rosterService,
		invitationService: invitationService,
		importMaxBytes:    importMaxBytes,
	}
}

// SendInvitationsRequest represents the invitation dispatch payload
type SendInvitationsRequest struct {
	WeddingPassword string   `json:"wedding_password"`
	GuestIDs        []string `json:"guest_ids"`
}

// EventProfile is the part of an event visible to its guests
type EventProfile struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Code        string     `json:"event_code"`
	Date        *time.Time `json:"event_date,omitempty"`
	Description *string    `json:"description,omitempty"`
	BrandColor  string     `json:"primary_color"`
	LogoURL     *string    `json:"logo_url,omitempty"`
	FontName    *string    `json:"font_name,omitempty"`
	UseTextLogo bool       `json:"use_logo_text"`
}

// ListGuests handles GET /v1/couple/guests
func (h *GuestHandlers) ListGuests(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	members, err := h.identityService.ListMembers(c.Request().Context(), tenant.ID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"guests": members})
}

// ImportGuests handles POST /v1/couple/guests/import. The roster comes from the
// multipart field "file" or, failing that, the raw request body.
func (h *GuestHandlers) ImportGuests(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	payload, err := h.readRoster(c)
	if err != nil {
		return common.SendError(c, err)
	}

	result, err := h.rosterService.Import(c.Request().Context(), tenant.ID, payload)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"imported":          result.Imported,
		"records_processed": result.RecordsProcessed,
		"skipped":           result.Skipped,
		"errors":            result.Errors,
		"message":           fmt.Sprintf("Successfully imported %d guests", result.Imported),
	})
}

func (h *GuestHandlers) readRoster(c echo.Context) ([]byte, error) {
	var src io.Reader
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: no file provided", common.ErrValidation)
		}
		if fileHeader.Size > h.importMaxBytes {
			return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrValidation, h.importMaxBytes)
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open upload: %v", common.ErrInternal, err)
		}
		defer file.Close()
		src = file
	} else {
		src = c.Request().Body
	}

	payload, err := io.ReadAll(io.LimitReader(src, h.importMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", common.ErrInternal, err)
	}
	if int64(len(payload)) > h.importMaxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrValidation, h.importMaxBytes)
	}
	return payload, nil
}

// SendInvitations handles POST /v1/couple/guests/invitations
func (h *GuestHandlers) SendInvitations(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	var req SendInvitationsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	ids := make([]uuid.UUID, 0, len(req.GuestIDs))
	for _, raw := range req.GuestIDs {
		id, err := common.ValidateUUID(raw, "guest_ids")
		if err != nil {
			return common.SendError(c, err)
		}
		ids = append(ids, id)
	}

	result, err := h.invitationService.Dispatch(c.Request().Context(), tenant, req.WeddingPassword, ids)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sent":    result.Sent,
		"errors":  result.Errors,
		"message": fmt.Sprintf("Invitations sent to %d guests", result.Sent),
	})
}

// GetEvent handles GET /v1/guest/event
func (h *GuestHandlers) GetEvent(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	return c.JSON(http.StatusOK, EventProfile{
		ID:          tenant.ID,
		Name:        tenant.Name,
		Code:        tenant.Code,
		Date:        tenant.ScheduledDate,
		Description: tenant.Description,
		BrandColor:  tenant.BrandColor,
		LogoURL:     tenant.LogoRef,
		FontName:    tenant.FontRef,
		UseTextLogo: tenant.UseTextLogo,
	})
}
