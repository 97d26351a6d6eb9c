package middleware

import (
	"context"
	"fmt"

	"heartgram/internal/common"
	"heartgram/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// ClaimsContextKey is where verified claims are stored on the echo context
const ClaimsContextKey = "claims"

// TokenValidator verifies bearer session tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.TokenClaims, error)
}

// JWTConfig builds the echo-jwt configuration. Verified subject, role and
// guest event scope are copied onto the request context.
func JWTConfig(validator TokenValidator) echojwt.Config {
	return echojwt.Config{
		ContextKey: ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := validator.ValidateToken(c.Request().Context(), auth)
			if err != nil {
				return nil, err
			}

			subjectID, err := claims.SubjectID()
			if err != nil {
				return nil, fmt.Errorf("%w: malformed subject", common.ErrUnauthenticated)
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, subjectID)
			ctx = context.WithValue(ctx, common.RoleKey, string(claims.Role))
			if tenantID, ok := claims.Tenant(); ok {
				ctx = context.WithValue(ctx, common.TenantIDKey, tenantID)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendError(c, fmt.Errorf("%w: missing or invalid token", common.ErrUnauthenticated))
		},
	}
}

// JWTAuth rejects requests without a valid bearer token
func JWTAuth(validator TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(JWTConfig(validator))
}

// ClaimsFromContext returns the claims stored by JWTAuth
func ClaimsFromContext(c echo.Context) (*services.TokenClaims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*services.TokenClaims)
	return claims, ok
}
