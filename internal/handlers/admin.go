package handlers

import (
	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/services/user"
	"mlm/internal/utils"
	"mlm/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves admin user management.
type AdminHandler struct {
	userService user.Service
}

func NewAdminHandler(userSvc user.Service) *AdminHandler {
	return &AdminHandler{userService: userSvc}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	filter := repositories.UserFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Status: c.Query("status"),
	}
	p := pagination.ParseFromRequest(c)
	users, total, err := h.userService.List(c.UserContext(), filter, p.Offset, p.Limit)
	if err != nil {
		return writeError(c, err)
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, users))
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	u, err := h.userService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, u)
}

// CreateAdmin registers another admin account.
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var input registerRequest
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}
	created, err := h.userService.CreateWithRole(c.UserContext(), user.RegisterInput{
		Email:        input.Email,
		Password:     input.Password,
		Name:         input.Name,
		Phone:        input.Phone,
		ReferralCode: input.ReferralCode,
	}, models.RoleAdmin)
	if err != nil {
		return writeError(c, err)
	}
	return utils.Created(c, created)
}

// SetUserStatus activates or deactivates a user. Inactive users keep earning
// commissions but cannot sign in.
func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	var input struct {
		Status string `json:"status" validate:"required,oneof=active inactive"`
	}
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}
	if err := h.userService.SetStatus(c.UserContext(), c.Params("id"), input.Status); err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, fiber.Map{"id": c.Params("id"), "status": input.Status})
}

// ChangeSponsor re-parents a user under the sponsor named by referral_code.
// An empty code makes the user a root.
func (h *AdminHandler) ChangeSponsor(c *fiber.Ctx) error {
	var input struct {
		ReferralCode string `json:"referral_code" validate:"max=128"`
	}
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}
	if err := h.userService.ChangeSponsor(c.UserContext(), c.Params("id"), input.ReferralCode); err != nil {
		return writeError(c, err)
	}
	u, err := h.userService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, u)
}

func (h *AdminHandler) UpdateBank(c *fiber.Ctx) error {
	var input models.BankDetails
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}
	u, err := h.userService.UpdateBank(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, u)
}
