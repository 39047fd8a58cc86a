// Package reports serves read-only projections of the commission ledger.
// Every view is computed from the ledger at request time.
package reports

import (
	"context"
	"time"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/services/sponsorship"

	"github.com/shopspring/decimal"
)

// LevelEarnings is one level's slice of a summary.
type LevelEarnings struct {
	Level   int             `json:"level"`
	Count   int64           `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Pending decimal.Decimal `json:"pending"`
	Paid    decimal.Decimal `json:"paid"`
}

// Summary totals ledger entries by status and level.
type Summary struct {
	TotalCount   int64           `json:"total_count"`
	Total        decimal.Decimal `json:"total"`
	PendingCount int64           `json:"pending_count"`
	Pending      decimal.Decimal `json:"pending"`
	PaidCount    int64           `json:"paid_count"`
	Paid         decimal.Decimal `json:"paid"`
	Levels       []LevelEarnings `json:"levels"`
}

// Earnings is a user's own summary.
type Earnings struct {
	UserID string `json:"user_id"`
	Summary
}

// TeamMember is a direct downline member with activity figures.
type TeamMember struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	IBONumber    string          `json:"ibo_number"`
	Status       string          `json:"status"`
	JoinedAt     time.Time       `json:"joined_at"`
	OrderCount   int64           `json:"order_count"`
	PaidEarnings decimal.Decimal `json:"paid_earnings"`
}

// Team is the team page: direct members and per-depth counts.
type Team struct {
	Members []TeamMember             `json:"members"`
	Levels  []sponsorship.LevelCount `json:"levels"`
}

type DownlineReader interface {
	ListDirectDownline(ctx context.Context, sponsorID string) ([]*models.User, error)
}

type OrderCounter interface {
	CountByUsers(ctx context.Context, userIDs []string) (map[string]int64, error)
}

type LevelCounter interface {
	LevelCounts(ctx context.Context, userID string) ([]sponsorship.LevelCount, error)
}

type Service interface {
	Payables(ctx context.Context) ([]repositories.PayableSummary, error)
	Payable(ctx context.Context, userID string) (*repositories.PayableSummary, error)
	History(ctx context.Context, filter repositories.CommissionFilter, offset, limit int) ([]repositories.CommissionHistoryRow, int64, error)
	Earnings(ctx context.Context, userID string) (*Earnings, error)
	Stats(ctx context.Context) (*Summary, error)
	Team(ctx context.Context, userID string) (*Team, error)
}

type service struct {
	commissions repositories.CommissionRepository
	users       DownlineReader
	orders      OrderCounter
	graph       LevelCounter
}

func NewService(
	commissions repositories.CommissionRepository,
	users DownlineReader,
	orders OrderCounter,
	graph LevelCounter,
) Service {
	if commissions == nil || users == nil || orders == nil || graph == nil {
		panic("reports service dependencies are required")
	}
	return &service{
		commissions: commissions,
		users:       users,
		orders:      orders,
		graph:       graph,
	}
}

func (s *service) Payables(ctx context.Context) ([]repositories.PayableSummary, error) {
	rows, err := s.commissions.PayableSummaries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].PendingTotal = rows[i].PendingTotal.Round(2)
	}
	return rows, nil
}

func (s *service) Payable(ctx context.Context, userID string) (*repositories.PayableSummary, error) {
	row, err := s.commissions.PayableSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	row.PendingTotal = row.PendingTotal.Round(2)
	return row, nil
}

func (s *service) History(ctx context.Context, filter repositories.CommissionFilter, offset, limit int) ([]repositories.CommissionHistoryRow, int64, error) {
	return s.commissions.History(ctx, filter, offset, limit)
}

func (s *service) Earnings(ctx context.Context, userID string) (*Earnings, error) {
	rows, err := s.commissions.StatusLevelTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Earnings{UserID: userID, Summary: Summarize(rows)}, nil
}

func (s *service) Stats(ctx context.Context) (*Summary, error) {
	rows, err := s.commissions.StatusLevelTotals(ctx, "")
	if err != nil {
		return nil, err
	}
	summary := Summarize(rows)
	return &summary, nil
}

func (s *service) Team(ctx context.Context, userID string) (*Team, error) {
	direct, err := s.users.ListDirectDownline(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(direct))
	for _, u := range direct {
		ids = append(ids, u.ID)
	}

	orderCounts, err := s.orders.CountByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	paid, err := s.commissions.PaidTotalsByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	levels, err := s.graph.LevelCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	members := make([]TeamMember, 0, len(direct))
	for _, u := range direct {
		earned, ok := paid[u.ID]
		if !ok {
			earned = decimal.Zero
		}
		members = append(members, TeamMember{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			IBONumber:    u.IBONumber,
			Status:       u.Status,
			JoinedAt:     u.CreatedAt,
			OrderCount:   orderCounts[u.ID],
			PaidEarnings: earned,
		})
	}
	return &Team{Members: members, Levels: levels}, nil
}

// Summarize folds (status, level) buckets into totals. Levels 1..3 are always
// present in the result.
func Summarize(rows []repositories.StatusLevelTotal) Summary {
	summary := Summary{
		Total:   decimal.Zero,
		Pending: decimal.Zero,
		Paid:    decimal.Zero,
		Levels:  make([]LevelEarnings, 0, models.MaxCommissionLevel),
	}
	byLevel := make(map[int]*LevelEarnings)
	for level := models.MinCommissionLevel; level <= models.MaxCommissionLevel; level++ {
		summary.Levels = append(summary.Levels, LevelEarnings{
			Level:   level,
			Total:   decimal.Zero,
			Pending: decimal.Zero,
			Paid:    decimal.Zero,
		})
	}
	for i := range summary.Levels {
		byLevel[summary.Levels[i].Level] = &summary.Levels[i]
	}

	for _, row := range rows {
		amount := row.Total.Round(2)
		summary.TotalCount += row.Count
		summary.Total = summary.Total.Add(amount)

		level, ok := byLevel[row.Level]
		if ok {
			level.Count += row.Count
			level.Total = level.Total.Add(amount)
		}

		switch row.Status {
		case models.CommissionStatusPending:
			summary.PendingCount += row.Count
			summary.Pending = summary.Pending.Add(amount)
			if ok {
				level.Pending = level.Pending.Add(amount)
			}
		case models.CommissionStatusPaid:
			summary.PaidCount += row.Count
			summary.Paid = summary.Paid.Add(amount)
			if ok {
				level.Paid = level.Paid.Add(amount)
			}
		}
	}
	return summary
}
