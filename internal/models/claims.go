package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"

	// Commission permissions
	PermissionCommissionRead  = "commission:read"
	PermissionCommissionWrite = "commission:write"
	PermissionPayoutWrite     = "payout:write"
	PermissionRateWrite       = "rate:write"

	// Order permissions
	PermissionOrderRead  = "order:read"
	PermissionOrderWrite = "order:write"

	// Catalog permissions
	PermissionProductWrite = "product:write"

	// User permissions
	PermissionUserRead  = "user:read"
	PermissionUserWrite = "user:write"
	PermissionTeamRead  = "team:read"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionReadAdmin,
			PermissionWriteAdmin,
			PermissionCommissionRead,
			PermissionCommissionWrite,
			PermissionPayoutWrite,
			PermissionRateWrite,
			PermissionOrderRead,
			PermissionOrderWrite,
			PermissionProductWrite,
			PermissionUserRead,
			PermissionUserWrite,
			PermissionTeamRead,
		}
	case RoleDistributor:
		return []string{
			PermissionCommissionRead,
			PermissionOrderRead,
			PermissionOrderWrite,
			PermissionUserRead,
			PermissionTeamRead,
		}
	default:
		return []string{}
	}
}
