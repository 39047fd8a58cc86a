package commission

import (
	"context"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/services/rates"
	"mlm/internal/services/sponsorship"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Outcome tells callers which "nothing to do" case, if any, applied.
type Outcome string

const (
	OutcomeGenerated        Outcome = "generated"
	OutcomeAlreadyGenerated Outcome = "already_generated"
	OutcomeNoAncestors      Outcome = "no_ancestors"
	OutcomeNoActiveRates    Outcome = "no_active_rates"
)

// Result describes one generation run.
type Result struct {
	OrderID string              `json:"order_id"`
	Outcome Outcome             `json:"outcome"`
	Created int                 `json:"created"`
	Skipped int                 `json:"skipped"`
	Entries []models.Commission `json:"entries,omitempty"`
}

// AncestorResolver yields a purchaser's upline.
type AncestorResolver interface {
	Ancestors(ctx context.Context, purchaserID string) ([]sponsorship.Ancestor, error)
}

// RateSource yields the active rate table.
type RateSource interface {
	Snapshot(ctx context.Context) (rates.Snapshot, error)
}

// OrderReader loads orders by id.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
}

type Service interface {
	// Generate writes the commissions for an order whose payment has been
	// confirmed. It is safe to call any number of times.
	Generate(ctx context.Context, order *models.Order) (*Result, error)

	// GenerateForOrder loads the order and calls Generate.
	GenerateForOrder(ctx context.Context, orderID string) (*Result, error)
}

type service struct {
	repo    repositories.CommissionRepository
	orders  OrderReader
	graph   AncestorResolver
	rates   RateSource
	metrics MetricsCollector
	log     zerolog.Logger
}

func NewService(
	repo repositories.CommissionRepository,
	orders OrderReader,
	graph AncestorResolver,
	rateSource RateSource,
	metrics MetricsCollector,
	log zerolog.Logger,
) Service {
	if repo == nil {
		panic("commission repository is required")
	}
	if orders == nil {
		panic("order reader is required")
	}
	if graph == nil {
		panic("ancestor resolver is required")
	}
	if rateSource == nil {
		panic("rate source is required")
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		orders:  orders,
		graph:   graph,
		rates:   rateSource,
		metrics: metrics,
		log:     log,
	}
}

// Compute derives the ledger entries for order without touching storage.
// Levels without an active, non-zero rate produce no entry.
func Compute(order *models.Order, chain []sponsorship.Ancestor, snapshot rates.Snapshot) []models.Commission {
	entries := make([]models.Commission, 0, len(chain))
	for _, ancestor := range chain {
		if !models.IsValidCommissionLevel(ancestor.Level) {
			continue
		}
		rate, ok := snapshot.RateFor(ancestor.Level)
		if !ok || rate.IsZero() {
			continue
		}
		entries = append(entries, models.Commission{
			UserID:           ancestor.UserID,
			OrderID:          order.ID,
			Level:            ancestor.Level,
			Rate:             rate,
			CommissionAmount: Amount(order.TotalAmount, rate),
			Status:           models.CommissionStatusPending,
		})
	}
	return entries
}

// Amount is total x rate rounded to cents, halves away from zero.
func Amount(total, rate decimal.Decimal) decimal.Decimal {
	return total.Mul(rate).Round(2)
}

func (s *service) GenerateForOrder(ctx context.Context, orderID string) (*Result, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, order)
}

func (s *service) Generate(ctx context.Context, order *models.Order) (*Result, error) {
	start := time.Now()

	result, err := s.generate(ctx, order)
	if err != nil {
		s.metrics.RecordError("generate", errorReason(err))
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("commission generation failed")
		return nil, err
	}

	s.metrics.RecordGeneration(string(result.Outcome), time.Since(start))
	for _, entry := range result.Entries {
		amount, _ := entry.CommissionAmount.Float64()
		s.metrics.RecordCommission(entry.Level, amount)
	}
	return result, nil
}

func (s *service) generate(ctx context.Context, order *models.Order) (*Result, error) {
	if order.UserID == "" || order.TotalAmount.IsNegative() {
		return nil, ErrInvalidOrder
	}
	if !models.IsPaidStatus(order.Status) {
		return nil, errors.Wrapf(ErrOrderNotEligible, "order %s is %s", order.ID, order.Status)
	}

	result := &Result{OrderID: order.ID}

	chain, err := s.graph.Ancestors(ctx, order.UserID)
	if err != nil {
		if errors.Is(err, sponsorship.ErrCycleDetected) || errors.Is(err, sponsorship.ErrDanglingSponsor) {
			return nil, errors.Wrap(ErrGraphCorruption, err.Error())
		}
		return nil, errors.Wrap(err, "failed to resolve ancestors")
	}
	if len(chain) == 0 {
		result.Outcome = OutcomeNoAncestors
		s.log.Debug().Str("order_id", order.ID).Msg("purchaser has no sponsor")
		return result, nil
	}

	snapshot, err := s.rates.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load commission rates")
	}

	entries := Compute(order, chain, snapshot)
	if len(entries) == 0 {
		result.Outcome = OutcomeNoActiveRates
		s.log.Info().Str("order_id", order.ID).Msg("no active rate for any ancestor level")
		return result, nil
	}

	var (
		created  []models.Commission
		existing int
	)
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.CommissionRepository) error {
		created = created[:0]

		// An order is generated once. A later run must not add entries for a
		// re-parented chain or a newly activated level.
		prior, err := tx.ListByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if existing = len(prior); existing > 0 {
			return nil
		}

		for i := range entries {
			inserted, err := tx.InsertIfAbsent(ctx, &entries[i])
			if err != nil {
				return err
			}
			if inserted {
				created = append(created, entries[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to write commissions")
	}

	result.Created = len(created)
	result.Skipped = len(entries) - len(created)
	if existing > 0 {
		result.Skipped = existing
	}
	result.Entries = created

	if result.Created == 0 {
		result.Outcome = OutcomeAlreadyGenerated
		s.log.Info().Str("order_id", order.ID).Msg("commissions already generated")
		return result, nil
	}

	result.Outcome = OutcomeGenerated
	event := s.log.Info().Str("order_id", order.ID).Int("created", result.Created)
	if result.Skipped > 0 {
		event = event.Int("existing", result.Skipped)
	}
	event.Msg("commissions generated")
	return result, nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrGraphCorruption):
		return "graph_corruption"
	case errors.Is(err, ErrOrderNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrInvalidOrder):
		return "invalid_order"
	default:
		return "storage"
	}
}
