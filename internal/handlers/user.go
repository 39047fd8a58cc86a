package handlers

import (
	"strconv"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/services/payout"
	"mlm/internal/services/reports"
	"mlm/internal/services/user"
	"mlm/internal/utils"
	"mlm/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the distributor's own profile, earnings and team.
type UserHandler struct {
	userService    user.Service
	reportsService reports.Service
	payoutService  payout.Service
}

func NewUserHandler(userSvc user.Service, reportsSvc reports.Service, payoutSvc payout.Service) *UserHandler {
	return &UserHandler{
		userService:    userSvc,
		reportsService: reportsSvc,
		payoutService:  payoutSvc,
	}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	u, err := h.userService.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, u)
}

type profileRequest struct {
	Name    string             `json:"name" validate:"omitempty,max=120"`
	Phone   string             `json:"phone" validate:"omitempty,max=32"`
	Address models.Address     `json:"address"`
	Bank    models.BankDetails `json:"bank"`
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	var input profileRequest
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}

	u, err := h.userService.UpdateProfile(c.UserContext(), claims.UserID, user.ProfileInput{
		Name:    input.Name,
		Phone:   input.Phone,
		Address: input.Address,
		Bank:    input.Bank,
	})
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, u)
}

// GetEarnings returns the caller's totals and per-level breakdown.
func (h *UserHandler) GetEarnings(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	earnings, err := h.reportsService.Earnings(c.UserContext(), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, earnings)
}

// GetCommissionHistory lists the caller's ledger entries. Accepts status and
// level filters.
func (h *UserHandler) GetCommissionHistory(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	filter, err := commissionFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	filter.UserID = claims.UserID
	filter.Search = ""

	p := pagination.ParseFromRequest(c)
	rows, total, err := h.reportsService.History(c.UserContext(), filter, p.Offset, p.Limit)
	if err != nil {
		return writeError(c, err)
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, rows))
}

func (h *UserHandler) GetTeam(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	team, err := h.reportsService.Team(c.UserContext(), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, team)
}

func (h *UserHandler) GetPayouts(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	p := pagination.ParseFromRequest(c)
	payouts, total, err := h.payoutService.ListPayouts(c.UserContext(), claims.UserID, p.Offset, p.Limit)
	if err != nil {
		return writeError(c, err)
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, payouts))
}

// commissionFilter reads status, level and search from the query string.
func commissionFilter(c *fiber.Ctx) (repositories.CommissionFilter, error) {
	filter := repositories.CommissionFilter{
		UserID: c.Query("user_id"),
		Search: c.Query("search"),
	}
	if status := c.Query("status"); status != "" {
		if !models.IsValidCommissionStatus(status) {
			return filter, errInvalidFilter
		}
		filter.Status = status
	}
	if raw := c.Query("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 1 || level > 3 {
			return filter, errInvalidFilter
		}
		filter.Level = level
	}
	return filter, nil
}
