// Package rates owns the per-level commission percentage table.
package rates

import (
	"context"
	"sort"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidLevel      = errors.New("commission level must be between 1 and 3")
	ErrInvalidPercentage = errors.New("commission percentage must be between 0 and 1 with at most 4 decimal places")
	ErrRateNotFound      = repositories.ErrRateNotFound
)

// Defaults restored by ResetToDefaults, as fractions.
var Defaults = map[int]decimal.Decimal{
	1: decimal.RequireFromString("0.10"),
	2: decimal.RequireFromString("0.05"),
	3: decimal.RequireFromString("0.02"),
}

// Snapshot maps a level to its authoritative active percentage. Levels
// without an active rate are absent.
type Snapshot map[int]decimal.Decimal

// RateFor returns the active percentage for level, or false when the level
// earns nothing.
func (s Snapshot) RateFor(level int) (decimal.Decimal, bool) {
	rate, ok := s[level]
	return rate, ok
}

// Cache stores the raw rate table between reads.
type Cache interface {
	CacheRates(ctx context.Context, rates []models.CommissionRate) error
	GetRates(ctx context.Context) ([]models.CommissionRate, bool, error)
	InvalidateRates(ctx context.Context) error
}

type Service interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	RateFor(ctx context.Context, level int) (decimal.Decimal, bool, error)
	List(ctx context.Context) ([]models.CommissionRate, error)
	Create(ctx context.Context, level int, percentage decimal.Decimal, active bool) (*models.CommissionRate, error)
	Update(ctx context.Context, id string, percentage decimal.Decimal, active bool) (*models.CommissionRate, error)
	ResetToDefaults(ctx context.Context) ([]models.CommissionRate, error)
}

type service struct {
	repo  repositories.RateRepository
	cache Cache
	log   zerolog.Logger
	now   func() time.Time
}

// NewService builds the rate service. cache may be nil.
func NewService(repo repositories.RateRepository, cache Cache, log zerolog.Logger) Service {
	if repo == nil {
		panic("rate repository is required")
	}
	return &service{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// percentagePlaces matches the decimal(5,4) column rates are stored in.
const percentagePlaces = 4

// Validate checks a rate before it is written.
func Validate(level int, percentage decimal.Decimal) error {
	if !models.IsValidCommissionLevel(level) {
		return ErrInvalidLevel
	}
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidPercentage
	}
	if !percentage.Equal(percentage.Round(percentagePlaces)) {
		return ErrInvalidPercentage
	}
	return nil
}

// BuildSnapshot picks, per level, the most recently updated active row.
func BuildSnapshot(rows []models.CommissionRate) Snapshot {
	latest := make(map[int]models.CommissionRate)
	for _, row := range rows {
		if !row.IsActive || Validate(row.Level, row.Percentage) != nil {
			continue
		}
		current, ok := latest[row.Level]
		if !ok || row.UpdatedAt.After(current.UpdatedAt) {
			latest[row.Level] = row
		}
	}

	snapshot := make(Snapshot, len(latest))
	for level, row := range latest {
		snapshot[level] = row.Percentage
	}
	return snapshot
}

func (s *service) Snapshot(ctx context.Context) (Snapshot, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildSnapshot(rows), nil
}

func (s *service) RateFor(ctx context.Context, level int) (decimal.Decimal, bool, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return decimal.Zero, false, err
	}
	rate, ok := snapshot.RateFor(level)
	return rate, ok, nil
}

func (s *service) List(ctx context.Context) ([]models.CommissionRate, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, level int, percentage decimal.Decimal, active bool) (*models.CommissionRate, error) {
	if err := Validate(level, percentage); err != nil {
		return nil, err
	}
	rate := &models.CommissionRate{Level: level, Percentage: percentage, IsActive: active}
	if err := s.repo.Create(ctx, rate); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info().Int("level", level).Str("percentage", percentage.String()).Bool("active", active).Msg("commission rate created")
	return rate, nil
}

func (s *service) Update(ctx context.Context, id string, percentage decimal.Decimal, active bool) (*models.CommissionRate, error) {
	rate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Validate(rate.Level, percentage); err != nil {
		return nil, err
	}

	rate.Percentage = percentage
	rate.IsActive = active
	rate.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, rate); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info().Str("rate_id", id).Int("level", rate.Level).Str("percentage", percentage.String()).Bool("active", active).Msg("commission rate updated")
	return rate, nil
}

// ResetToDefaults sets every row of each level to the default percentage and
// activates it, keeping row ids. Missing levels get a new row.
func (s *service) ResetToDefaults(ctx context.Context) ([]models.CommissionRate, error) {
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.RateRepository) error {
		rows, err := tx.List(ctx)
		if err != nil {
			return err
		}

		seen := make(map[int]bool)
		now := s.now()
		for i := range rows {
			def, ok := Defaults[rows[i].Level]
			if !ok {
				continue
			}
			seen[rows[i].Level] = true
			rows[i].Percentage = def
			rows[i].IsActive = true
			rows[i].UpdatedAt = now
			if err := tx.Save(ctx, &rows[i]); err != nil {
				return err
			}
		}

		for _, level := range sortedLevels() {
			if seen[level] {
				continue
			}
			if err := tx.Create(ctx, &models.CommissionRate{Level: level, Percentage: Defaults[level], IsActive: true}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to reset commission rates")
	}

	s.invalidate(ctx)
	s.log.Info().Msg("commission rates reset to defaults")
	return s.repo.List(ctx)
}

func (s *service) load(ctx context.Context) ([]models.CommissionRate, error) {
	if s.cache != nil {
		rows, found, err := s.cache.GetRates(ctx)
		if err != nil {
			s.log.Debug().Err(err).Msg("rate cache lookup failed")
		} else if found {
			return rows, nil
		}
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.CacheRates(ctx, rows); err != nil {
			s.log.Debug().Err(err).Msg("failed to cache rates")
		}
	}
	return rows, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRates(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate rate cache")
	}
}

func sortedLevels() []int {
	levels := make([]int, 0, len(Defaults))
	for level := range Defaults {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}
