package handlers

import (
	"net/http"

	"heartgram/internal/common"
	"heartgram/internal/middleware"
	"heartgram/internal/models"
	"heartgram/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService         services.AuthService
	provisioningService services.ProvisioningService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, provisioningService services.ProvisioningService) *AuthHandlers {
	return &AuthHandlers{
		authService:         authService,
		provisioningService: provisioningService,
	}
}

// LoginRequest represents the operator login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GuestLoginRequest represents the guest login payload
type GuestLoginRequest struct {
	EventCode string `json:"event_code"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// RegisterRequest represents the couple self-registration payload
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	models.TokenResponse
	User *models.Operator `json:"user"`
}

// AdminLogin handles POST /v1/auth/admin/login
func (h *AuthHandlers) AdminLogin(c echo.Context) error {
	return h.operatorLogin(c, models.RoleAdmin)
}

// CoupleLogin handles POST /v1/auth/couple/login
func (h *AuthHandlers) CoupleLogin(c echo.Context) error {
	return h.operatorLogin(c, models.RoleCouple)
}

func (h *AuthHandlers) operatorLogin(c echo.Context, role models.Role) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return common.SendValidationError(c, "email", "email and password are required")
	}

	token, err := h.authService.LoginOperator(c.Request().Context(), req.Email, req.Password, role)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, token)
}

// GuestLogin handles POST /v1/auth/guest/login
func (h *AuthHandlers) GuestLogin(c echo.Context) error {
	var req GuestLoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.EventCode == "" || req.Email == "" || req.Password == "" {
		return common.SendValidationError(c, "event_code", "event code, email and password are required")
	}

	token, err := h.authService.LoginMember(c.Request().Context(), req.EventCode, req.Email, req.Password)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, token)
}

// CoupleRegister handles POST /v1/auth/couple/register
func (h *AuthHandlers) CoupleRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	operator, token, err := h.provisioningService.RegisterCouple(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, RegisterResponse{TokenResponse: *token, User: operator})
}

// Me handles GET /v1/auth/me and echoes the verified claims
func (h *AuthHandlers) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return common.SendError(c, common.ErrUnauthenticated)
	}

	resp := map[string]interface{}{
		"user_id":    claims.Subject,
		"role":       claims.Role,
		"token_id":   claims.ID,
		"expires_at": claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		resp["issued_at"] = claims.IssuedAt.Time
	}
	if claims.TenantID != "" {
		resp["event_id"] = claims.TenantID
	}
	return c.JSON(http.StatusOK, resp)
}
