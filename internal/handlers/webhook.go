package handlers

import (
	"context"
	"encoding/json"
	"strings"

	"mlm/internal/models"
	"mlm/internal/services/commission"
	"mlm/internal/services/orders"
	"mlm/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

const orderMetadataKey = "order_id"

// PaymentConfirmer is the order lookup and the operation a successful
// payment triggers.
type PaymentConfirmer interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	ConfirmPayment(ctx context.Context, id string) (*orders.StatusChange, error)
}

// WebhookHandler receives Stripe events. A payment_intent.succeeded event
// carrying an order_id in its metadata confirms that order when the amount
// and currency match it.
type WebhookHandler struct {
	orders   PaymentConfirmer
	secret   string
	currency string
	log      zerolog.Logger
}

func NewWebhookHandler(orders PaymentConfirmer, secret, currency string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		orders:   orders,
		secret:   secret,
		currency: strings.ToLower(currency),
		log:      log,
	}
}

// amountInCents is the order total in the smallest currency unit, the form
// Stripe reports amounts in.
func amountInCents(order *models.Order) int64 {
	return order.TotalAmount.Shift(2).Round(0).IntPart()
}

// Stripe verifies the signature and handles the event. Transient failures
// answer 500 so Stripe redelivers; confirming twice is harmless.
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	if h.secret == "" {
		return utils.Error(c, fiber.StatusServiceUnavailable, "webhook not configured")
	}

	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), h.secret)
	if err != nil {
		h.log.Warn().Err(err).Msg("rejected webhook signature")
		return utils.BadRequest(c, "invalid signature")
	}

	if event.Type != "payment_intent.succeeded" {
		return utils.Success(c, fiber.Map{"received": true, "ignored": event.Type})
	}

	var intent stripe.PaymentIntent
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &intent) != nil {
		return utils.BadRequest(c, "malformed payment intent")
	}
	orderID := intent.Metadata[orderMetadataKey]
	if orderID == "" {
		h.log.Info().Str("payment_intent", intent.ID).Msg("payment intent without order id ignored")
		return utils.Success(c, fiber.Map{"received": true})
	}

	order, err := h.orders.Get(c.UserContext(), orderID)
	switch {
	case err == nil:
	case errors.Is(err, orders.ErrOrderNotFound):
		h.log.Warn().Err(err).Str("order_id", orderID).Str("payment_intent", intent.ID).Msg("payment for unknown order")
		return utils.Success(c, fiber.Map{"received": true})
	default:
		h.log.Error().Err(err).Str("order_id", orderID).Msg("order lookup failed")
		return utils.InternalError(c, "payment confirmation failed")
	}

	if intent.Amount != amountInCents(order) || strings.ToLower(string(intent.Currency)) != h.currency {
		h.log.Error().
			Str("order_id", orderID).
			Str("payment_intent", intent.ID).
			Int64("paid_cents", intent.Amount).
			Int64("order_cents", amountInCents(order)).
			Str("paid_currency", string(intent.Currency)).
			Str("order_currency", h.currency).
			Msg("payment does not match order total")
		return utils.Success(c, fiber.Map{"received": true})
	}

	change, err := h.orders.ConfirmPayment(c.UserContext(), orderID)
	switch {
	case err == nil:
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, orders.ErrOrderCancelled):
		h.log.Warn().Err(err).Str("order_id", orderID).Str("payment_intent", intent.ID).Msg("payment for unusable order")
		return utils.Success(c, fiber.Map{"received": true})
	case errors.Is(err, commission.ErrGraphCorruption),
		errors.Is(err, commission.ErrInvalidOrder),
		errors.Is(err, commission.ErrOrderNotEligible):
		// Redelivery cannot succeed until an operator intervenes.
		h.log.Error().Err(err).Str("order_id", orderID).Str("payment_intent", intent.ID).Msg("payment recorded but commissions need manual regeneration")
		return utils.Success(c, fiber.Map{"received": true, "order_id": orderID})
	default:
		h.log.Error().Err(err).Str("order_id", orderID).Msg("payment confirmation failed")
		return utils.InternalError(c, "payment confirmation failed")
	}

	ev := h.log.Info().Str("order_id", orderID).Str("payment_intent", intent.ID)
	if change.Generation != nil {
		ev = ev.Str("outcome", string(change.Generation.Outcome))
	}
	ev.Msg("payment confirmed")
	return utils.Success(c, fiber.Map{"received": true, "order_id": orderID})
}
