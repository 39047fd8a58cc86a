package repositories

import (
	"context"
	"time"

	"mlm/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrCommissionNotFound = errors.New("commission not found")

// CommissionFilter narrows ledger listings. Zero values mean "any".
type CommissionFilter struct {
	UserID string
	Status string
	Level  int
	Search string
}

// CommissionHistoryRow is a ledger entry joined with its order, the
// purchaser and the earning user.
type CommissionHistoryRow struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	UserName         string          `json:"user_name"`
	UserEmail        string          `json:"user_email"`
	IBONumber        string          `json:"ibo_number"`
	OrderID          string          `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	OrderTotal       decimal.Decimal `json:"order_total"`
	PurchaserID      string          `json:"purchaser_id"`
	PurchaserName    string          `json:"purchaser_name"`
	Level            int             `json:"level"`
	Rate             decimal.Decimal `json:"rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Status           string          `json:"status"`
	PayoutID         *string         `json:"payout_id,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// PayableSummary aggregates a user's pending entries.
type PayableSummary struct {
	UserID            string          `json:"user_id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	IBONumber         string          `json:"ibo_number"`
	BankName          string          `json:"bank_name"`
	BankAccountNumber string          `json:"bank_account_number"`
	BankBranchCode    string          `json:"bank_branch_code"`
	BankAccountType   string          `json:"bank_account_type"`
	BankAccountHolder string          `json:"bank_account_holder"`
	PendingCount      int64           `json:"pending_count"`
	PendingTotal      decimal.Decimal `json:"pending_total"`
	FirstPendingAt    Timestamp       `json:"first_pending_at"`
	LastPendingAt     Timestamp       `json:"last_pending_at"`
}

// StatusLevelTotal is one (status, level) bucket of the ledger.
type StatusLevelTotal struct {
	Status string          `json:"status"`
	Level  int             `json:"level"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// CommissionRepository is the ledger store. Writers only ever insert with a
// uniqueness guard or update conditionally on status = pending.
type CommissionRepository interface {
	ExecuteInTransaction(ctx context.Context, fn func(CommissionRepository) error) error

	// InsertIfAbsent inserts the entry unless the order already has an entry
	// for that level. It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, commission *models.Commission) (bool, error)

	ListByOrder(ctx context.Context, orderID string) ([]models.Commission, error)

	// SettlePending marks every pending entry of payout.UserID created at or
	// before payout.Cutoff as paid and records the payout. When nothing
	// matches no payout is stored, payout.ID is cleared and the count is 0.
	SettlePending(ctx context.Context, payout *models.Payout) (int64, error)

	// MarkPaid flips the given entries from pending to paid. Entries already
	// paid are left untouched and not counted.
	MarkPaid(ctx context.Context, ids []string, paidAt time.Time) (int64, error)

	PayableSummaries(ctx context.Context) ([]PayableSummary, error)
	PayableSummary(ctx context.Context, userID string) (*PayableSummary, error)
	History(ctx context.Context, filter CommissionFilter, offset, limit int) ([]CommissionHistoryRow, int64, error)
	StatusLevelTotals(ctx context.Context, userID string) ([]StatusLevelTotal, error)
	PaidTotalsByUsers(ctx context.Context, userIDs []string) (map[string]decimal.Decimal, error)
	ListPayouts(ctx context.Context, userID string, offset, limit int) ([]models.Payout, int64, error)
}
