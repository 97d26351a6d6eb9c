package middleware

import (
	"net/http"
	"strings"
	"time"

	"heartgram/internal/common"
	"heartgram/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuditMiddleware writes one structured log line per audited request
type AuditMiddleware struct {
	log *logger.Logger
}

// NewAuditMiddleware creates a new audit middleware instance
func NewAuditMiddleware(log *logger.Logger) *AuditMiddleware {
	return &AuditMiddleware{log: log}
}

// AuditRequest logs mutating requests, failed requests and anything under /auth/ or /admin/
func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final
				c.Error(err)
			}

			status := c.Response().Status
			if !m.shouldAudit(c.Request().Method, c.Path(), status) {
				return nil
			}

			ctx := c.Request().Context()
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			}
			if role, ok := common.GetRoleFromContext(ctx); ok {
				fields = append(fields, zap.String("role", role))
			}
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				fields = append(fields, zap.String("subject", userID.String()))
			}
			if tenantID, ok := common.GetTenantIDFromContext(ctx); ok {
				fields = append(fields, zap.String("event_id", tenantID.String()))
			}

			if status >= http.StatusInternalServerError {
				m.log.Error("audit", fields...)
			} else {
				m.log.Info("audit", fields...)
			}
			return nil
		}
	}
}

func (m *AuditMiddleware) shouldAudit(method, path string, status int) bool {
	if m.shouldSkipLogging(method, path) {
		return false
	}
	if status >= http.StatusBadRequest {
		return true
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return strings.Contains(path, "/auth/") || strings.Contains(path, "/admin/")
}

// shouldSkipLogging skips health checks
func (m *AuditMiddleware) shouldSkipLogging(method, path string) bool {
	return method == http.MethodGet && strings.HasPrefix(path, "/health")
}
