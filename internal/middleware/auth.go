package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"storefront-api/internal/apperr"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"

	RoleAdmin = "admin"
)

// Auth validates the bearer token issued by the identity service and injects
// the resolved user id and role into the request context. Everything behind
// it trusts that identity.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get("Authorization"))
			if raw == "" {
				return apperr.Unauthorized("missing token")
			}

			parts := strings.SplitN(raw, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return apperr.Unauthorized("invalid token")
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				return apperr.Unauthorized("unauthorized")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return apperr.Unauthorized("unauthorized")
			}

			userID, ok := claims["userId"].(string)
			if !ok || strings.TrimSpace(userID) == "" {
				return apperr.Unauthorized("unauthorized")
			}

			role, _ := claims["role"].(string)
			if role == "" {
				role = "user"
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}

// RequireAdmin runs after Auth and rejects non-admin callers.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, _ := c.Get(ContextRole).(string); role != RoleAdmin {
				return apperr.Forbidden("admin role required")
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated caller's id from the request context.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

// IsAdmin reports whether the authenticated caller carries the admin role.
func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(ContextRole).(string)
	return role == RoleAdmin
}
