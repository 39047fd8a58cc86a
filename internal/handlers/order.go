package handlers

import (
	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/services/orders"
	"mlm/internal/utils"
	"mlm/internal/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type OrderHandler struct {
	orderService orders.Service
}

func NewOrderHandler(orderSvc orders.Service) *OrderHandler {
	return &OrderHandler{orderService: orderSvc}
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder places a pending order for the caller, priced from the catalog.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	var input createOrderRequest
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}

	items := make([]orders.ItemInput, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, orders.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.orderService.Create(c.UserContext(), claims.UserID, items)
	if err != nil {
		return writeError(c, err)
	}
	return utils.Created(c, order)
}

func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	return h.list(c, repositories.OrderFilter{UserID: claims.UserID, Status: c.Query("status")})
}

// GetOrder returns an order. Distributors only see their own.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return writeError(c, errNoClaims)
	}
	order, err := h.orderService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if claims.Role != models.RoleAdmin && order.UserID != claims.UserID {
		return writeError(c, orders.ErrOrderNotFound)
	}
	return utils.Success(c, order)
}

// ListOrders is the admin view over every order.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	return h.list(c, repositories.OrderFilter{UserID: c.Query("user_id"), Status: c.Query("status")})
}

func (h *OrderHandler) list(c *fiber.Ctx, filter repositories.OrderFilter) error {
	if filter.Status != "" && !models.IsValidOrderStatus(filter.Status) {
		return writeError(c, orders.ErrInvalidStatus)
	}
	p := pagination.ParseFromRequest(c)
	list, total, err := h.orderService.List(c.UserContext(), filter, p.Offset, p.Limit)
	if err != nil {
		return writeError(c, err)
	}
	p.Total = total
	return utils.Success(c, pagination.Response(p, list))
}

// UpdateOrderStatus applies an admin status transition. Entering processing
// generates commissions.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	var input struct {
		Status string `json:"status" validate:"required"`
	}
	if err := parseBody(c, &input); err != nil {
		return writeError(c, err)
	}

	change, err := h.orderService.UpdateStatus(c.UserContext(), c.Params("id"), input.Status)
	return h.respondChange(c, change, err)
}

// ConfirmPayment marks an order paid. Calling it again is safe.
func (h *OrderHandler) ConfirmPayment(c *fiber.Ctx) error {
	change, err := h.orderService.ConfirmPayment(c.UserContext(), c.Params("id"))
	return h.respondChange(c, change, err)
}

// RegenerateCommissions re-runs generation for an order; existing entries
// are left untouched.
func (h *OrderHandler) RegenerateCommissions(c *fiber.Ctx) error {
	result, err := h.orderService.Regenerate(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return utils.Success(c, result)
}

func (h *OrderHandler) respondChange(c *fiber.Ctx, change *orders.StatusChange, err error) error {
	if err == nil {
		return utils.Success(c, change)
	}
	if errors.Is(err, orders.ErrGenerationFailed) && change != nil {
		l := reqLog()
		l.Error().Err(err).Str("order_id", change.Order.ID).Msg("order moved but commission generation failed")
		return utils.Respond(c, fiber.StatusInternalServerError, fiber.Map{
			"error": "order status updated but commission generation failed; retry with regenerate",
			"order": change.Order,
		})
	}
	return writeError(c, err)
}
