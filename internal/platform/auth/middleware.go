package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	identityIDKey contextKey = "identity_id"
	roleKey       contextKey = "identity_role"
	isStaffKey    contextKey = "identity_is_staff"
)

// Middleware authenticates requests with a bearer session token. On success
// the identity ID, role, and staff flag are placed in both the echo context
// (for middleware that reads c.Get) and the request context (for services).
func Middleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("identity_id", claims.Subject)
			c.Set("identity_role", claims.Role)

			ctx := ContextWithIdentity(c.Request().Context(), claims.Subject, claims.Role, claims.IsStaff)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ContextWithIdentity attaches an authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, identityID, role string, isStaff bool) context.Context {
	ctx = context.WithValue(ctx, identityIDKey, identityID)
	ctx = context.WithValue(ctx, roleKey, role)
	return context.WithValue(ctx, isStaffKey, isStaff)
}

// IdentityIDFromContext returns the authenticated identity ID, or "".
func IdentityIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityIDKey).(string)
	return id
}

// RoleFromContext returns the authenticated identity's role, or "".
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// IsStaffFromContext reports whether the authenticated identity is staff.
func IsStaffFromContext(ctx context.Context) bool {
	staff, _ := ctx.Value(isStaffKey).(bool)
	return staff
}
