package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Commission statuses. The only legal transition is pending -> paid.
const (
	CommissionStatusPending = "pending"
	CommissionStatusPaid    = "paid"
)

// Commission levels
const (
	MinCommissionLevel = 1
	MaxCommissionLevel = 3
)

// Commission is one ledger entry: what an ancestor earned at a given level on
// a given order. The (order, user, level) tuple is unique, and an order has at
// most one earner per level.
type Commission struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id"`
	UserID           string          `gorm:"not null;size:36;uniqueIndex:idx_commissions_order_user_level,priority:2;index:idx_commissions_user_status,priority:1" json:"user_id"`
	OrderID          string          `gorm:"not null;size:36;uniqueIndex:idx_commissions_order_user_level,priority:1;uniqueIndex:idx_commissions_order_level,priority:1" json:"order_id"`
	Level            int             `gorm:"not null;uniqueIndex:idx_commissions_order_user_level,priority:3;uniqueIndex:idx_commissions_order_level,priority:2" json:"level"`
	Rate             decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commission_amount"`
	Status           string          `gorm:"not null;size:16;index:idx_commissions_user_status,priority:2" json:"status"`
	PayoutID         *string         `gorm:"index;size:36" json:"payout_id,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
}

func (c *Commission) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = CommissionStatusPending
	}
	return nil
}

// IsValidCommissionStatus reports whether s is a known commission status.
func IsValidCommissionStatus(s string) bool {
	return s == CommissionStatusPending || s == CommissionStatusPaid
}

// IsValidCommissionLevel reports whether level is inside the supported depth.
func IsValidCommissionLevel(level int) bool {
	return level >= MinCommissionLevel && level <= MaxCommissionLevel
}

// CommissionRate is the admin-configured percentage for a level, stored as a
// fraction (0.10 == 10%).
type CommissionRate struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	Level      int             `gorm:"index;not null" json:"level"`
	Percentage decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"percentage"`
	IsActive   bool            `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (r *CommissionRate) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Payout records one settlement run for a user.
type Payout struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	UserID          string          `gorm:"index;not null;size:36" json:"user_id"`
	Cutoff          time.Time       `gorm:"not null" json:"cutoff"`
	Note            string          `json:"note,omitempty"`
	PaidBy          *string         `gorm:"size:36" json:"paid_by,omitempty"`
	CommissionCount int64           `gorm:"not null" json:"commission_count"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
}

func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
