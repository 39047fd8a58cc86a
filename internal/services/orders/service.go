// Package orders runs the order lifecycle and triggers commission generation
// when an order's payment is confirmed.
package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/services/commission"
	"mlm/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound     = repositories.ErrOrderNotFound
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidItem       = errors.New("order item needs a product and a positive quantity")
	ErrUnknownProduct    = errors.New("product not found or not available")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrConcurrentUpdate  = errors.New("order status changed concurrently")
	ErrOrderCancelled    = errors.New("order is cancelled")

	// ErrGenerationFailed is returned alongside a StatusChange when the order
	// moved but its commissions were not written. Regenerate is safe to call.
	ErrGenerationFailed = errors.New("commission generation failed")
)

// ItemInput is one requested order line. Its price comes from the catalog.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// StatusChange reports a transition and, when it entered processing, the
// generation result.
type StatusChange struct {
	Order      *models.Order      `json:"order"`
	From       string             `json:"from"`
	Generation *commission.Result `json:"generation,omitempty"`
}

// Catalog resolves the products an order references.
type Catalog interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
}

// Generator writes commissions for a paid order.
type Generator interface {
	Generate(ctx context.Context, order *models.Order) (*commission.Result, error)
}

type Service interface {
	Create(ctx context.Context, userID string, items []ItemInput) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter repositories.OrderFilter, offset, limit int) ([]*models.Order, int64, error)

	// UpdateStatus applies an admin transition. On ErrGenerationFailed the
	// returned StatusChange is non-nil and the new status is persisted.
	UpdateStatus(ctx context.Context, id, to string) (*StatusChange, error)

	// ConfirmPayment moves a pending order to processing. For an order that is
	// already paid it re-runs generation, which writes nothing new if the
	// commissions exist.
	ConfirmPayment(ctx context.Context, id string) (*StatusChange, error)

	Regenerate(ctx context.Context, id string) (*commission.Result, error)
}

type service struct {
	repo      repositories.OrderRepository
	catalog   Catalog
	generator Generator
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(repo repositories.OrderRepository, catalog Catalog, generator Generator, log zerolog.Logger) Service {
	if repo == nil {
		panic("order repository is required")
	}
	if catalog == nil {
		panic("product catalog is required")
	}
	if generator == nil {
		panic("commission generator is required")
	}
	return &service{
		repo:      repo,
		catalog:   catalog,
		generator: generator,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NewOrderNumber formats MLO-<base36 millis>-<random>.
func NewOrderNumber(now time.Time) (string, error) {
	suffix, err := utils.RandomCode(5)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate order number")
	}
	return "MLO-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + "-" + suffix, nil
}

func (s *service) Create(ctx context.Context, userID string, items []ItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	ids := make([]string, 0, len(items))
	for _, in := range items {
		if in.ProductID == "" || in.Quantity <= 0 {
			return nil, ErrInvalidItem
		}
		ids = append(ids, in.ProductID)
	}
	catalog, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.Zero,
	}
	for _, in := range items {
		product, ok := catalog[in.ProductID]
		if !ok || !product.IsActive {
			return nil, errors.Wrapf(ErrUnknownProduct, "product %s", in.ProductID)
		}
		line := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    in.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  line,
		})
		order.TotalAmount = order.TotalAmount.Add(line)
	}

	number, err := NewOrderNumber(s.now())
	if err != nil {
		return nil, err
	}
	order.OrderNumber = number

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info().Str("order_id", order.ID).Str("order_number", number).Str("total", order.TotalAmount.StringFixed(2)).Msg("order created")
	return order, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter repositories.OrderFilter, offset, limit int) ([]*models.Order, int64, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *service) UpdateStatus(ctx context.Context, id, to string) (*StatusChange, error) {
	if !models.IsValidOrderStatus(to) {
		return nil, ErrInvalidStatus
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, to)
}

func (s *service) ConfirmPayment(ctx context.Context, id string) (*StatusChange, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case order.Status == models.OrderStatusPending:
		change, err := s.transition(ctx, order, models.OrderStatusProcessing)
		if !errors.Is(err, ErrConcurrentUpdate) {
			return change, err
		}
		// Someone else moved it first; reload and fall through to the retry path.
		if order, err = s.repo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if !models.IsPaidStatus(order.Status) {
			return nil, errors.Wrapf(ErrInvalidTransition, "order %s is %s", id, order.Status)
		}
	case order.Status == models.OrderStatusCancelled:
		return nil, ErrOrderCancelled
	}

	change := &StatusChange{Order: order, From: order.Status}
	result, err := s.generator.Generate(ctx, order)
	if err != nil {
		return change, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	change.Generation = result
	return change, nil
}

func (s *service) Regenerate(ctx context.Context, id string) (*commission.Result, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(ctx, order)
}

func (s *service) transition(ctx context.Context, order *models.Order, to string) (*StatusChange, error) {
	from := order.Status
	if !models.CanTransition(from, to) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
	}

	moved, err := s.repo.TransitionStatus(ctx, order.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrConcurrentUpdate
	}
	order.Status = to
	s.log.Info().Str("order_id", order.ID).Str("from", from).Str("to", to).Msg("order status changed")

	change := &StatusChange{Order: order, From: from}
	if to != models.OrderStatusProcessing {
		return change, nil
	}

	result, err := s.generator.Generate(ctx, order)
	if err != nil {
		return change, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	change.Generation = result
	return change, nil
}
