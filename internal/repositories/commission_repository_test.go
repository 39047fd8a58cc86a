package repositories

import (
	"context"
	"testing"
	"time"

	"mlm/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIfAbsent_DuplicateIsNoop(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	order := seedOrder(t, db, b, "MLO-1", "1000.00")

	entry := func() *models.Commission {
		return &models.Commission{
			UserID:           a.ID,
			OrderID:          order.ID,
			Level:            1,
			Rate:             decimal.RequireFromString("0.10"),
			CommissionAmount: decimal.RequireFromString("100.00"),
		}
	}

	inserted, err := repo.InsertIfAbsent(ctx, entry())
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertIfAbsent(ctx, entry())
	require.NoError(t, err)
	assert.False(t, inserted)

	rows, err := repo.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CommissionStatusPending, rows[0].Status)
	assert.True(t, rows[0].CommissionAmount.Equal(decimal.NewFromInt(100)))
}

func TestInsertIfAbsent_OneEarnerPerLevel(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	x := seedUser(t, db, "xavier", nil)
	order := seedOrder(t, db, b, "MLO-1", "1000.00")

	inserted, err := repo.InsertIfAbsent(ctx, &models.Commission{
		UserID:           a.ID,
		OrderID:          order.ID,
		Level:            1,
		Rate:             decimal.RequireFromString("0.10"),
		CommissionAmount: decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = repo.InsertIfAbsent(ctx, &models.Commission{
		UserID:           x.ID,
		OrderID:          order.ID,
		Level:            1,
		Rate:             decimal.RequireFromString("0.10"),
		CommissionAmount: decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	rows, err := repo.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].UserID)
}

func TestExecuteInTransaction_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	order := seedOrder(t, db, b, "MLO-1", "1000.00")

	err := repo.ExecuteInTransaction(ctx, func(tx CommissionRepository) error {
		_, err := tx.InsertIfAbsent(ctx, &models.Commission{
			UserID:           a.ID,
			OrderID:          order.ID,
			Level:            1,
			Rate:             decimal.RequireFromString("0.10"),
			CommissionAmount: decimal.RequireFromString("100.00"),
		})
		require.NoError(t, err)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	rows, err := repo.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSettlePending_CutoffAndIdempotence(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	sponsor := seedUser(t, db, "sam", nil)
	buyer := seedUser(t, db, "bea", sponsor)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	amounts := []string{"10.00", "20.00", "30.00", "40.00"}
	for i, amount := range amounts {
		order := seedOrder(t, db, buyer, "MLO-"+amount, "100.00")
		seedCommission(t, db, sponsor, order, 1, amount, base.Add(time.Duration(i)*time.Hour))
	}

	cutoff := base.Add(2*time.Hour + 30*time.Minute)
	payout := &models.Payout{UserID: sponsor.ID, Cutoff: cutoff, Note: "Admin batch payout"}
	count, err := repo.SettlePending(ctx, payout)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NotEmpty(t, payout.ID)
	assert.Equal(t, int64(3), payout.CommissionCount)
	assert.True(t, payout.TotalAmount.Equal(decimal.NewFromInt(60)), payout.TotalAmount.String())

	var stillPending int64
	require.NoError(t, db.Model(&models.Commission{}).
		Where("user_id = ? AND status = ?", sponsor.ID, models.CommissionStatusPending).
		Count(&stillPending).Error)
	assert.Equal(t, int64(1), stillPending)

	var tagged int64
	require.NoError(t, db.Model(&models.Commission{}).Where("payout_id = ?", payout.ID).Count(&tagged).Error)
	assert.Equal(t, int64(3), tagged)

	again := &models.Payout{UserID: sponsor.ID, Cutoff: cutoff}
	count, err = repo.SettlePending(ctx, again)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, again.ID)

	var payouts int64
	require.NoError(t, db.Model(&models.Payout{}).Count(&payouts).Error)
	assert.Equal(t, int64(1), payouts)

	rest := &models.Payout{UserID: sponsor.ID, Cutoff: base.Add(24 * time.Hour)}
	count, err = repo.SettlePending(ctx, rest)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, rest.TotalAmount.Equal(decimal.NewFromInt(40)))
}

func TestSettlePending_OnlyTouchesRequestedUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	c := seedUser(t, db, "carol", b)
	order := seedOrder(t, db, c, "MLO-1", "1000.00")
	now := time.Now().UTC()
	seedCommission(t, db, b, order, 1, "100.00", now.Add(-time.Minute))
	seedCommission(t, db, a, order, 2, "50.00", now.Add(-time.Minute))

	count, err := repo.SettlePending(ctx, &models.Payout{UserID: b.ID, Cutoff: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	summary, err := repo.PayableSummary(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.PendingCount)
}

func TestMarkPaid_NeverRevertsOrRecounts(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	order := seedOrder(t, db, b, "MLO-1", "1000.00")
	first := seedCommission(t, db, a, order, 1, "100.00", time.Now().UTC())

	count, err := repo.MarkPaid(ctx, []string{first.ID}, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.MarkPaid(ctx, []string{first.ID}, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.MarkPaid(ctx, nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, count)

	rows, err := repo.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.CommissionStatusPaid, rows[0].Status)
	assert.NotNil(t, rows[0].PaidAt)
}

func TestPayableSummaries(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	c := seedUser(t, db, "carol", b)
	early := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	o1 := seedOrder(t, db, c, "MLO-1", "1000.00")
	o2 := seedOrder(t, db, c, "MLO-2", "500.00")
	seedCommission(t, db, b, o1, 1, "100.00", early)
	seedCommission(t, db, a, o1, 2, "50.00", early)
	seedCommission(t, db, b, o2, 1, "50.00", late)
	seedCommission(t, db, a, o2, 2, "25.50", late)

	rows, err := repo.PayableSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, b.ID, rows[0].UserID)
	assert.Equal(t, "bob", rows[0].Name)
	assert.Equal(t, int64(2), rows[0].PendingCount)
	assert.True(t, rows[0].PendingTotal.Equal(decimal.NewFromInt(150)))
	require.True(t, rows[0].FirstPendingAt.Valid)
	require.True(t, rows[0].LastPendingAt.Valid)
	assert.True(t, rows[0].FirstPendingAt.Time.Equal(early))
	assert.True(t, rows[0].LastPendingAt.Time.Equal(late))

	assert.Equal(t, a.ID, rows[1].UserID)
	assert.True(t, rows[1].PendingTotal.Equal(decimal.RequireFromString("75.50")))

	empty, err := repo.PayableSummary(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.PendingCount)
	assert.True(t, empty.PendingTotal.IsZero())
}

func TestHistory_JoinsOrderAndPurchaser(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	c := seedUser(t, db, "carol", b)
	order := seedOrder(t, db, c, "MLO-ABC", "1000.00")
	now := time.Now().UTC()
	seedCommission(t, db, b, order, 1, "100.00", now)
	seedCommission(t, db, a, order, 2, "50.00", now)

	rows, total, err := repo.History(ctx, CommissionFilter{UserID: a.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "MLO-ABC", rows[0].OrderNumber)
	assert.Equal(t, "carol", rows[0].PurchaserName)
	assert.Equal(t, c.ID, rows[0].PurchaserID)
	assert.Equal(t, 2, rows[0].Level)
	assert.True(t, rows[0].OrderTotal.Equal(decimal.NewFromInt(1000)))

	rows, total, err = repo.History(ctx, CommissionFilter{Search: "mlo-abc", Level: 1}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].UserID)

	_, total, err = repo.History(ctx, CommissionFilter{Status: models.CommissionStatusPaid}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStatusLevelTotalsAndPaidTotals(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	c := seedUser(t, db, "carol", b)
	o1 := seedOrder(t, db, c, "MLO-1", "1000.00")
	o2 := seedOrder(t, db, b, "MLO-2", "200.00")
	now := time.Now().UTC()
	paid := seedCommission(t, db, b, o1, 1, "100.00", now)
	seedCommission(t, db, a, o1, 2, "50.00", now)
	seedCommission(t, db, a, o2, 1, "20.00", now)

	_, err := repo.MarkPaid(ctx, []string{paid.ID}, now)
	require.NoError(t, err)

	totals, err := repo.StatusLevelTotals(ctx, "")
	require.NoError(t, err)
	require.Len(t, totals, 3)
	assert.Equal(t, models.CommissionStatusPaid, totals[0].Status)
	assert.Equal(t, 1, totals[0].Level)
	assert.True(t, totals[0].Total.Equal(decimal.NewFromInt(100)))

	mine, err := repo.StatusLevelTotals(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	paidTotals, err := repo.PaidTotalsByUsers(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.True(t, paidTotals[b.ID].Equal(decimal.NewFromInt(100)))
	_, ok := paidTotals[a.ID]
	assert.False(t, ok)
}

func TestListPayouts(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice", nil)
	b := seedUser(t, db, "bob", a)
	order := seedOrder(t, db, b, "MLO-1", "1000.00")
	seedCommission(t, db, a, order, 1, "100.00", time.Now().UTC().Add(-time.Hour))

	_, err := repo.SettlePending(ctx, &models.Payout{UserID: a.ID, Cutoff: time.Now().UTC()})
	require.NoError(t, err)

	payouts, total, err := repo.ListPayouts(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(1), payouts[0].CommissionCount)

	_, total, err = repo.ListPayouts(ctx, b.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}
