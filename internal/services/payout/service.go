// Package payout settles pending commissions.
package payout

import (
	"context"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultNote labels settlements run without an explicit note.
const DefaultNote = "Admin batch payout"

var ErrNoCommissionsSelected = errors.New("no commissions selected")

// Settlement is the outcome of paying one user. Count 0 means nothing was
// pending at the cutoff; that is not an error.
type Settlement struct {
	PayoutID string          `json:"payout_id,omitempty"`
	UserID   string          `json:"user_id"`
	Cutoff   time.Time       `json:"cutoff"`
	Count    int64           `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// UserReader resolves the user being paid.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Service interface {
	// PayUserCommissions marks every pending entry of userID created at or
	// before cutoff as paid. A zero cutoff means now; future cutoffs are
	// clamped to now.
	PayUserCommissions(ctx context.Context, userID string, cutoff time.Time, note string, paidBy *string) (*Settlement, error)

	// MarkPaid is the manual override for selected entries.
	MarkPaid(ctx context.Context, ids []string) (int64, error)

	ListPayouts(ctx context.Context, userID string, offset, limit int) ([]models.Payout, int64, error)
}

type service struct {
	repo    repositories.CommissionRepository
	users   UserReader
	metrics MetricsCollector
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(repo repositories.CommissionRepository, users UserReader, metrics MetricsCollector, log zerolog.Logger) Service {
	if repo == nil {
		panic("commission repository is required")
	}
	if users == nil {
		panic("user reader is required")
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		repo:    repo,
		users:   users,
		metrics: metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) PayUserCommissions(ctx context.Context, userID string, cutoff time.Time, note string, paidBy *string) (*Settlement, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	if cutoff.IsZero() || cutoff.After(now) {
		cutoff = now
	}
	if note == "" {
		note = DefaultNote
	}

	payout := &models.Payout{
		UserID: userID,
		Cutoff: cutoff.UTC(),
		Note:   note,
		PaidBy: paidBy,
	}
	count, err := s.repo.SettlePending(ctx, payout)
	if err != nil {
		s.metrics.RecordError("settle", "storage")
		s.log.Error().Err(err).Str("user_id", userID).Msg("settlement failed")
		return nil, err
	}

	settlement := &Settlement{
		PayoutID: payout.ID,
		UserID:   userID,
		Cutoff:   payout.Cutoff,
		Count:    count,
		Total:    payout.TotalAmount,
	}
	if count == 0 {
		settlement.Total = decimal.Zero
		s.log.Info().Str("user_id", userID).Time("cutoff", cutoff).Msg("nothing pending to settle")
		return settlement, nil
	}

	total, _ := settlement.Total.Float64()
	s.metrics.RecordSettlement(count, total)
	s.log.Info().
		Str("user_id", userID).
		Str("payout_id", payout.ID).
		Int64("count", count).
		Str("total", settlement.Total.StringFixed(2)).
		Msg("commissions settled")
	return settlement, nil
}

func (s *service) MarkPaid(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoCommissionsSelected
	}
	count, err := s.repo.MarkPaid(ctx, ids, s.now())
	if err != nil {
		s.metrics.RecordError("mark_paid", "storage")
		return 0, err
	}
	s.log.Info().Int("selected", len(ids)).Int64("marked", count).Msg("commissions marked paid")
	return count, nil
}

func (s *service) ListPayouts(ctx context.Context, userID string, offset, limit int) ([]models.Payout, int64, error) {
	return s.repo.ListPayouts(ctx, userID, offset, limit)
}
