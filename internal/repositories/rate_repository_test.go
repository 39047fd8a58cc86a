package repositories

import (
	"context"
	"testing"
	"time"

	"mlm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewRateRepository(db)
	ctx := context.Background()

	l1 := &models.CommissionRate{Level: 1, Percentage: mustDecimal("0.10"), IsActive: true}
	l2 := &models.CommissionRate{Level: 2, Percentage: mustDecimal("0.05"), IsActive: true}
	require.NoError(t, repo.Create(ctx, l2))
	require.NoError(t, repo.Create(ctx, l1))

	rates, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, 1, rates[0].Level)

	err = repo.ExecuteInTransaction(ctx, func(tx RateRepository) error {
		l2.IsActive = false
		l2.UpdatedAt = time.Now().UTC()
		return tx.Save(ctx, l2)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, l2.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.Percentage.Equal(mustDecimal("0.05")))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrRateNotFound)

	err = repo.Save(ctx, &models.CommissionRate{ID: "missing", Level: 1, Percentage: mustDecimal("0.1")})
	assert.ErrorIs(t, err, ErrRateNotFound)
}
