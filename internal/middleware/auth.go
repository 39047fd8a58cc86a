// Package middleware provides HTTP middleware components for the application.
// It includes authentication and authorization for the fiber routes.
package middleware

import (
	"strings"

	"mlm/internal/models"
	"mlm/internal/services/auth"
	"mlm/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AuthMiddleware validates bearer tokens and stores the claims on the
// request context.
type AuthMiddleware struct {
	authService auth.Service
	log         zerolog.Logger
}

func NewAuthMiddleware(authService auth.Service, log zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		log:         log,
	}
}

// Handler validates JWT tokens and adds claims to the request context.
// It checks for:
// - Presence of Authorization header with Bearer token
// - Valid JWT signature and expiry
// - Token version matches current user version
// - The user is still active
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	_, claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.Debug().Err(err).Msg("token validation failed")
		return utils.Unauthorized(c, "invalid token")
	}

	user, err := m.authService.GetUserByID(c.UserContext(), claims.UserID)
	if err != nil {
		m.log.Debug().Err(err).Str("user_id", claims.UserID).Msg("user from token not found")
		return utils.Unauthorized(c, "invalid token")
	}
	if claims.TokenVersion != user.TokenVersion {
		m.log.Debug().
			Str("user_id", claims.UserID).
			Int("token_version", claims.TokenVersion).
			Int("current_version", user.TokenVersion).
			Msg("token version mismatch")
		return utils.Unauthorized(c, "session expired")
	}
	if user.Status != models.UserStatusActive {
		return utils.Forbidden(c, "account is inactive")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "insufficient permissions")
	}
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
// Admins pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return utils.Forbidden(c, "insufficient permissions")
	}
}
