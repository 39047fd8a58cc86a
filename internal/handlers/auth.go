package handlers

import (
	"time"

	"mlm/internal/config"
	"mlm/internal/models"
	"mlm/internal/services/auth"
	"mlm/internal/services/user"
	"mlm/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
	userService user.Service
}

func NewAuthHandler(authService auth.Service, userService user.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

type registerRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	Name         string `json:"name" validate:"required,max=120"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=128"`
}

// Register creates a distributor account, optionally under the sponsor named
// by referral_code.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input registerRequest
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}

	created, err := h.userService.Register(c.UserContext(), user.RegisterInput{
		Email:        input.Email,
		Password:     input.Password,
		Name:         input.Name,
		Phone:        input.Phone,
		ReferralCode: input.ReferralCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"message": "User registered successfully",
		"user":    created,
	})
}

// LoginUser handles user authentication and returns JWT tokens
func (h *AuthHandler) LoginUser(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}

	u, accessToken, refreshToken, err := h.authService.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return writeError(c, err)
	}

	h.setAuthCookies(c, accessToken, refreshToken)

	return utils.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": fiber.Map{
			"id":          u.ID,
			"email":       u.Email,
			"name":        u.Name,
			"ibo_number":  u.IBONumber,
			"role":        u.Role,
			"permissions": models.GetDefaultPermissions(u.Role),
		},
	})
}

// RefreshToken handles token refresh requests. The token is read from the
// refresh_token cookie first, then from the body.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		var input struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&input); err != nil {
			return utils.Unauthorized(c, "refresh token not provided")
		}
		refreshToken = input.RefreshToken
	}
	if refreshToken == "" {
		return utils.Unauthorized(c, "refresh token not provided")
	}

	newAccessToken, newRefreshToken, err := h.authService.RefreshTokens(c.UserContext(), refreshToken)
	if err != nil {
		return writeError(c, err)
	}

	h.setAuthCookies(c, newAccessToken, newRefreshToken)

	return utils.Success(c, fiber.Map{
		"access_token":  newAccessToken,
		"refresh_token": newRefreshToken,
	})
}

// LogoutUser invalidates every token issued to the caller.
func (h *AuthHandler) LogoutUser(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}

	if err := h.authService.Logout(c.UserContext(), claims.UserID); err != nil {
		return writeError(c, err)
	}

	h.clearAuthCookies(c)
	return utils.Success(c, fiber.Map{
		"message": "Successfully logged out",
	})
}

// ChangePassword handles password change requests
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required"`
	}
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}

	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}

	if err := h.userService.ChangePassword(c.UserContext(), claims.UserID, input.OldPassword, input.NewPassword); err != nil {
		return writeError(c, err)
	}

	h.clearAuthCookies(c)
	return utils.Success(c, fiber.Map{
		"message": "Password changed successfully",
	})
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  now.Add(utils.AccessTokenTTL),
		HTTPOnly: true,
		Secure:   config.IsProduction(),
		SameSite: "Strict",
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  now.Add(utils.RefreshTokenTTL),
		HTTPOnly: true,
		Secure:   config.IsProduction(),
		SameSite: "Strict",
		Path:     "/api/auth",
	})
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{Name: "access_token", Expires: expired, HTTPOnly: true, Secure: config.IsProduction(), Path: "/"})
	c.Cookie(&fiber.Cookie{Name: "refresh_token", Expires: expired, HTTPOnly: true, Secure: config.IsProduction(), Path: "/api/auth"})
}
