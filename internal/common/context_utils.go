package common

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"heartgram/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context keys are shared with the logger so request-scoped fields show up in log lines.
const (
	UserIDKey   = logger.UserIDKey
	TenantIDKey = logger.TenantIDKey
	RoleKey     = logger.ContextKey("role")
)

// DateLayout is the wire format for scheduled dates
const DateLayout = "2006-01-02"

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendError renders err using the domain error taxonomy
func SendError(c echo.Context, err error) error {
	status, code, message := StatusFor(err)
	if IsInternal(err) {
		logger.Get().WithContext(c.Request().Context()).Error("request failed",
			zap.Error(err), zap.String("path", c.Path()))
	}
	return c.JSON(status, CreateErrorResponse(code, message, nil))
}

// SendValidationError sends a validation error response for a single field
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetTenantIDFromContext extracts the tenant ID from the request context
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok
}

// GetRoleFromContext extracts the caller role from the request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// ValidateUUID parses a path or body identifier
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrValidation, fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", ErrValidation, fieldName)
	}
	return id, nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, fieldName)
	}
	return nil
}

// ValidateOptionalString validates optional string fields
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil && len(*value) > maxLength {
		return fmt.Errorf("%w: %s cannot exceed %d characters", ErrValidation, fieldName, maxLength)
	}
	return nil
}

// ValidateSingleLine rejects values containing line breaks
func ValidateSingleLine(value, fieldName string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: %s cannot contain line breaks", ErrValidation, fieldName)
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address
func ValidateEmail(email, fieldName string) error {
	if email == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, fieldName)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %s must be a valid email address", ErrValidation, fieldName)
	}
	return nil
}

// ValidateHexColor validates #RRGGBB colors
func ValidateHexColor(color, fieldName string) error {
	if !hexColorPattern.MatchString(color) {
		return fmt.Errorf("%w: %s must be a #RRGGBB color", ErrValidation, fieldName)
	}
	return nil
}

// ParseDate parses an optional YYYY-MM-DD date. Empty input yields nil.
func ParseDate(dateStr, fieldName string) (*time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil, nil
	}
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be in YYYY-MM-DD format", ErrValidation, fieldName)
	}
	return &date, nil
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ValidatePaginationParams clamps pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit < 0 || offset < 0 {
		return 0, 0, fmt.Errorf("%w: limit and offset must be non-negative", ErrValidation)
	}
	if limit == 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return limit, offset, nil
}
