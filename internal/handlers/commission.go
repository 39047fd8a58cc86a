package handlers

import (
	"time"

	"mlm/internal/services/payout"
	"mlm/internal/services/reports"
	"mlm/internal/utils"
	"mlm/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

// CommissionHandler serves the admin commission and payout screens.
type CommissionHandler struct {
	reportsService reports.Service
	payoutService  payout.Service
}

func NewCommissionHandler(reportsSvc reports.Service, payoutSvc payout.Service) *CommissionHandler {
	return &CommissionHandler{
		reportsService: reportsSvc,
		payoutService:  payoutSvc,
	}
}

// ListCommissions lists ledger entries with user_id, status, level and
// search filters.
func (h *CommissionHandler) ListCommissions(c *fiber.Ctx) error {
	filter, err := commissionFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	p := pagination.ParseFromRequest(c)
	rows, total, err := h.reportsService.History(c.UserContext(), filter, p.Offset, p.Limit)
	if err != nil {
		return writeError(c, err)
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, rows))
}

func (h *CommissionHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.reportsService.Stats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, stats)
}

// Payables lists every user with pending commissions, largest total first.
func (h *CommissionHandler) Payables(c *fiber.Ctx) error {
	rows, err := h.reportsService.Payables(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, fiber.Map{"data": rows})
}

func (h *CommissionHandler) UserPayable(c *fiber.Ctx) error {
	summary, err := h.reportsService.Payable(c.UserContext(), c.Params("userId"))
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, summary)
}

type payUserRequest struct {
	Cutoff *time.Time `json:"cutoff"`
	Note   string     `json:"note" validate:"max=500"`
}

// PayUser settles every pending commission of the user created at or before
// cutoff (default now). A second call reports a zero count.
func (h *CommissionHandler) PayUser(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	var input payUserRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return writeError(c, err)
		}
	}

	var cutoff time.Time
	if input.Cutoff != nil {
		cutoff = *input.Cutoff
	}
	paidBy := claims.UserID

	settlement, err := h.payoutService.PayUserCommissions(c.UserContext(), c.Params("userId"), cutoff, input.Note, &paidBy)
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, settlement)
}

// MarkPaid is the manual override for selected entries. Only pending entries
// change; the response carries how many did.
func (h *CommissionHandler) MarkPaid(c *fiber.Ctx) error {
	var input struct {
		IDs []string `json:"ids" validate:"required,min=1,max=1000,dive,required"`
	}
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}

	updated, err := h.payoutService.MarkPaid(c.UserContext(), input.IDs)
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, fiber.Map{"updated": updated})
}

func (h *CommissionHandler) ListPayouts(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	payouts, total, err := h.payoutService.ListPayouts(c.UserContext(), c.Query("user_id"), p.Offset, p.Limit)
	if err != nil {
		return writeError(c, err)
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, payouts))
}
