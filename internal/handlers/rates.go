package handlers

import (
	"mlm/internal/services/rates"
	"mlm/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RateHandler struct {
	rateService rates.Service
}

func NewRateHandler(rateSvc rates.Service) *RateHandler {
	return &RateHandler{rateService: rateSvc}
}

// ListRates returns every rate row plus the snapshot generation would use.
func (h *RateHandler) ListRates(c *fiber.Ctx) error {
	rows, err := h.rateService.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	snapshot, err := h.rateService.Snapshot(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"data":   rows,
		"active": snapshot,
	})
}

type rateRequest struct {
	Level      int             `json:"level"`
	Percentage decimal.Decimal `json:"percentage"`
	IsActive   *bool           `json:"is_active"`
}

func (r rateRequest) active() bool {
	return r.IsActive == nil || *r.IsActive
}

// CreateRate adds a rate row. Percentage is a fraction in [0, 1].
func (h *RateHandler) CreateRate(c *fiber.Ctx) error {
	var input rateRequest
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}
	rate, err := h.rateService.Create(c.UserContext(), input.Level, input.Percentage, input.active())
	if err != nil {
		return writeError(c, err)
	}
	return utils.Created(c, rate)
}

func (h *RateHandler) UpdateRate(c *fiber.Ctx) error {
	var input rateRequest
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}
	rate, err := h.rateService.Update(c.UserContext(), c.Params("id"), input.Percentage, input.active())
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, rate)
}

// ResetRates restores 10% / 5% / 2%, all active.
func (h *RateHandler) ResetRates(c *fiber.Ctx) error {
	rows, err := h.rateService.ResetToDefaults(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, fiber.Map{"data": rows})
}
