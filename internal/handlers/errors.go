package handlers

import (
	"mlm/internal/logging"
	"mlm/internal/services/auth"
	"mlm/internal/services/commission"
	"mlm/internal/services/orders"
	"mlm/internal/services/payout"
	"mlm/internal/services/products"
	"mlm/internal/services/rates"
	"mlm/internal/services/sponsorship"
	"mlm/internal/services/user"
	"mlm/internal/utils"
	payload "mlm/internal/utils/validation"
	"mlm/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	errInvalidBody   = errors.New("invalid request body")
	errNoClaims      = errors.New("invalid claims")
	errInvalidFilter = errors.New("status must be pending or paid and level between 1 and 3")
)

func reqLog() zerolog.Logger {
	return logging.For("http")
}

// parseBody decodes the JSON body into dst and runs its validate tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return errInvalidBody
	}
	return payload.Struct(dst)
}

// writeError maps domain errors onto HTTP responses. Anything unrecognised
// is logged and reported as a 500 without details.
func writeError(c *fiber.Ctx, err error) error {
	var fieldErrs payload.Errors
	if errors.As(err, &fieldErrs) {
		return utils.ValidationFailed(c, fieldErrs)
	}

	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, errInvalidFilter),
		errors.Is(err, user.ErrInvalidReferralCode),
		errors.Is(err, user.ErrInvalidStatus),
		errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrIncorrectPassword),
		errors.Is(err, validation.ErrPasswordTooShort),
		errors.Is(err, validation.ErrPasswordTooLong),
		errors.Is(err, validation.ErrPasswordNoSpecial),
		errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrInvalidItem),
		errors.Is(err, orders.ErrUnknownProduct),
		errors.Is(err, products.ErrInvalidProduct),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, rates.ErrInvalidLevel),
		errors.Is(err, rates.ErrInvalidPercentage),
		errors.Is(err, payout.ErrNoCommissionsSelected):
		return utils.BadRequest(c, err.Error())

	case errors.Is(err, errNoClaims),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionExpired):
		return utils.Unauthorized(c, err.Error())

	case errors.Is(err, auth.ErrAccountInactive):
		return utils.Forbidden(c, err.Error())

	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, products.ErrProductNotFound),
		errors.Is(err, rates.ErrRateNotFound):
		return utils.NotFound(c, err.Error())

	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, orders.ErrConcurrentUpdate),
		errors.Is(err, orders.ErrOrderCancelled):
		return utils.Conflict(c, err.Error())

	case errors.Is(err, sponsorship.ErrSelfSponsor),
		errors.Is(err, sponsorship.ErrSponsorInDownline),
		errors.Is(err, commission.ErrOrderNotEligible),
		errors.Is(err, commission.ErrInvalidOrder):
		return utils.Unprocessable(c, err.Error())

	case errors.Is(err, commission.ErrGraphCorruption):
		l := reqLog()
		l.Error().Err(err).Str("path", c.Path()).Msg("sponsorship graph corrupted")
		return utils.InternalError(c, "sponsorship graph corrupted, contact an administrator")
	}

	l := reqLog()
	l.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	return utils.InternalError(c, "internal server error")
}
