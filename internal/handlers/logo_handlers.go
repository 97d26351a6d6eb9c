package handlers

import (
	"fmt"
	"net/http"

	"heartgram/internal/common"
	"heartgram/internal/middleware"
	"heartgram/internal/services"

	"github.com/labstack/echo/v4"
)

const maxLogoBytes = 5 << 20

// LogoHandlers manages event logos in the asset store
type LogoHandlers struct {
	assetStore services.AssetStore
}

// NewLogoHandlers creates a new logo handlers instance
func NewLogoHandlers(assetStore services.AssetStore) *LogoHandlers {
	return &LogoHandlers{assetStore: assetStore}
}

// ListLogos handles GET /v1/couple/event/logos
func (h *LogoHandlers) ListLogos(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	logos, err := h.assetStore.List(c.Request().Context(), tenant.ID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"logos": logos})
}

// UploadLogo handles POST /v1/couple/event/logos. The returned URL is stored on
// the event through the branding endpoint.
func (h *LogoHandlers) UploadLogo(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "no file provided")
	}
	if fileHeader.Size > maxLogoBytes {
		return common.SendError(c, fmt.Errorf("%w: logo exceeds %d bytes", common.ErrValidation, maxLogoBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return common.SendError(c, fmt.Errorf("%w: open upload: %v", common.ErrInternal, err))
	}
	defer file.Close()

	asset, err := h.assetStore.Upload(c.Request().Context(), tenant.ID, fileHeader.Filename, file, fileHeader.Size, fileHeader.Header.Get(echo.HeaderContentType))
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, asset)
}

// DeleteLogo handles DELETE /v1/couple/event/logos?key=...
func (h *LogoHandlers) DeleteLogo(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrForbidden)
	}

	if err := h.assetStore.Delete(c.Request().Context(), tenant.ID, c.QueryParam("key")); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
