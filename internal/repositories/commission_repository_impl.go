package repositories

import (
	"context"
	"strings"
	"time"

	"mlm/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errNothingToSettle rolls back the payout row when no entry matched.
var errNothingToSettle = errors.New("nothing to settle")

const payableSelect = `u.id AS user_id, u.name AS name, u.email AS email, u.ibo_number AS ibo_number,
	COALESCE(u.bank_name, '') AS bank_name,
	COALESCE(u.bank_account_number, '') AS bank_account_number,
	COALESCE(u.bank_branch_code, '') AS bank_branch_code,
	COALESCE(u.bank_account_type, '') AS bank_account_type,
	COALESCE(u.bank_account_holder, '') AS bank_account_holder,
	COUNT(c.id) AS pending_count,
	COALESCE(SUM(c.commission_amount), 0) AS pending_total,
	MIN(c.created_at) AS first_pending_at,
	MAX(c.created_at) AS last_pending_at`

const payableGroup = `u.id, u.name, u.email, u.ibo_number, u.bank_name, u.bank_account_number,
	u.bank_branch_code, u.bank_account_type, u.bank_account_holder`

const historySelect = `c.id AS id, c.user_id AS user_id, u.name AS user_name, u.email AS user_email,
	u.ibo_number AS ibo_number, c.order_id AS order_id, o.order_number AS order_number,
	o.total_amount AS order_total, o.user_id AS purchaser_id, p.name AS purchaser_name,
	c.level AS level, c.rate AS rate, c.commission_amount AS commission_amount,
	c.status AS status, c.payout_id AS payout_id, c.paid_at AS paid_at, c.created_at AS created_at`

type commissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &commissionRepository{db: db}
}

func (r *commissionRepository) ExecuteInTransaction(ctx context.Context, fn func(CommissionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&commissionRepository{db: tx})
	})
}

func (r *commissionRepository) InsertIfAbsent(ctx context.Context, commission *models.Commission) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(commission)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to insert commission")
	}
	return result.RowsAffected == 1, nil
}

func (r *commissionRepository) ListByOrder(ctx context.Context, orderID string) ([]models.Commission, error) {
	var commissions []models.Commission
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("level ASC").
		Find(&commissions).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list order commissions")
	}
	return commissions, nil
}

func (r *commissionRepository) SettlePending(ctx context.Context, payout *models.Payout) (int64, error) {
	var settled int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payout).Error; err != nil {
			return errors.Wrap(err, "failed to create payout")
		}

		result := tx.Model(&models.Commission{}).
			Where("user_id = ? AND status = ? AND created_at <= ?",
				payout.UserID, models.CommissionStatusPending, payout.Cutoff).
			Updates(map[string]interface{}{
				"status":    models.CommissionStatusPaid,
				"payout_id": payout.ID,
				"paid_at":   payout.CreatedAt,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to settle commissions")
		}
		if result.RowsAffected == 0 {
			return errNothingToSettle
		}
		settled = result.RowsAffected

		var totals struct {
			Count int64
			Total decimal.Decimal
		}
		err := tx.Model(&models.Commission{}).
			Select("COUNT(*) AS count, COALESCE(SUM(commission_amount), 0) AS total").
			Where("payout_id = ?", payout.ID).
			Scan(&totals).Error
		if err != nil {
			return errors.Wrap(err, "failed to total payout")
		}

		payout.CommissionCount = settled
		payout.TotalAmount = totals.Total.Round(2)
		err = tx.Model(payout).Updates(map[string]interface{}{
			"commission_count": payout.CommissionCount,
			"total_amount":     payout.TotalAmount,
		}).Error
		if err != nil {
			return errors.Wrap(err, "failed to update payout totals")
		}
		return nil
	})
	if errors.Is(err, errNothingToSettle) {
		payout.ID = ""
		payout.CommissionCount = 0
		payout.TotalAmount = decimal.Zero
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return settled, nil
}

func (r *commissionRepository) MarkPaid(ctx context.Context, ids []string, paidAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.Commission{}).
		Where("id IN ? AND status = ?", ids, models.CommissionStatusPending).
		Updates(map[string]interface{}{
			"status":  models.CommissionStatusPaid,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to mark commissions paid")
	}
	return result.RowsAffected, nil
}

func (r *commissionRepository) payables(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("commissions c").
		Select(payableSelect).
		Joins("JOIN users u ON u.id = c.user_id").
		Where("c.status = ?", models.CommissionStatusPending).
		Group(payableGroup)
}

func (r *commissionRepository) PayableSummaries(ctx context.Context) ([]PayableSummary, error) {
	var rows []PayableSummary
	if err := r.payables(ctx).Order("pending_total DESC").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load payables")
	}
	return rows, nil
}

func (r *commissionRepository) PayableSummary(ctx context.Context, userID string) (*PayableSummary, error) {
	var rows []PayableSummary
	if err := r.payables(ctx).Where("c.user_id = ?", userID).Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load payable")
	}
	if len(rows) == 0 {
		return &PayableSummary{UserID: userID, PendingTotal: decimal.Zero}, nil
	}
	return &rows[0], nil
}

func (r *commissionRepository) history(ctx context.Context, filter CommissionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("commissions c").
		Joins("JOIN orders o ON o.id = c.order_id").
		Joins("JOIN users u ON u.id = c.user_id").
		Joins("JOIN users p ON p.id = o.user_id")
	if filter.UserID != "" {
		query = query.Where("c.user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("c.status = ?", filter.Status)
	}
	if filter.Level != 0 {
		query = query.Where("c.level = ?", filter.Level)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(u.name) LIKE ? OR LOWER(u.email) LIKE ? OR LOWER(u.ibo_number) LIKE ? OR LOWER(o.order_number) LIKE ?",
			like, like, like, like,
		)
	}
	return query
}

func (r *commissionRepository) History(ctx context.Context, filter CommissionFilter, offset, limit int) ([]CommissionHistoryRow, int64, error) {
	var total int64
	if err := r.history(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count commissions")
	}

	var rows []CommissionHistoryRow
	err := r.history(ctx, filter).
		Select(historySelect).
		Order("c.created_at DESC, c.level ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list commissions")
	}
	return rows, total, nil
}

func (r *commissionRepository) StatusLevelTotals(ctx context.Context, userID string) ([]StatusLevelTotal, error) {
	query := r.db.WithContext(ctx).Model(&models.Commission{}).
		Select("status, level, COUNT(*) AS count, COALESCE(SUM(commission_amount), 0) AS total")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var rows []StatusLevelTotal
	if err := query.Group("status, level").Order("status, level").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to aggregate commissions")
	}
	return rows, nil
}

func (r *commissionRepository) PaidTotalsByUsers(ctx context.Context, userIDs []string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal, len(userIDs))
	if len(userIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		UserID string
		Total  decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Commission{}).
		Select("user_id, COALESCE(SUM(commission_amount), 0) AS total").
		Where("user_id IN ? AND status = ?", userIDs, models.CommissionStatusPaid).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to total paid commissions")
	}
	for _, row := range rows {
		totals[row.UserID] = row.Total.Round(2)
	}
	return totals, nil
}

func (r *commissionRepository) ListPayouts(ctx context.Context, userID string, offset, limit int) ([]models.Payout, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Payout{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count payouts")
	}

	var payouts []models.Payout
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payouts).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to list payouts")
	}
	return payouts, total, nil
}
