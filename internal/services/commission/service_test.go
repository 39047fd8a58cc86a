package commission

import (
	"context"
	"testing"

	"mlm/internal/models"
	"mlm/internal/repositories/mocks"
	"mlm/internal/services/rates"
	"mlm/internal/services/sponsorship"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticGraph struct {
	chains map[string][]sponsorship.Ancestor
	err    error
}

func (g staticGraph) Ancestors(_ context.Context, purchaserID string) ([]sponsorship.Ancestor, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.chains[purchaserID], nil
}

type staticRates struct {
	snapshot rates.Snapshot
	err      error
}

func (r staticRates) Snapshot(context.Context) (rates.Snapshot, error) {
	return r.snapshot, r.err
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func defaultSnapshot() rates.Snapshot {
	return rates.Snapshot{1: d("0.10"), 2: d("0.05"), 3: d("0.02")}
}

// C bought; B sponsors C; A sponsors B.
func scenarioGraph() staticGraph {
	return staticGraph{chains: map[string][]sponsorship.Ancestor{
		"C": {{UserID: "B", Level: 1}, {UserID: "A", Level: 2}},
		"A": nil,
	}}
}

func paidOrder(buyer, total string) *models.Order {
	return &models.Order{
		ID:          "order-1",
		UserID:      buyer,
		OrderNumber: "MLO-1",
		TotalAmount: d(total),
		Status:      models.OrderStatusProcessing,
	}
}

func newTestService(repo *mocks.CommissionRepository, graph AncestorResolver, source RateSource) Service {
	return NewService(repo, new(mocks.OrderRepository), graph, source, nil, zerolog.Nop())
}

func TestCompute(t *testing.T) {
	order := paidOrder("C", "1000.00")
	chain := []sponsorship.Ancestor{{UserID: "B", Level: 1}, {UserID: "A", Level: 2}, {UserID: "R", Level: 3}}

	t.Run("one entry per active level", func(t *testing.T) {
		entries := Compute(order, chain, defaultSnapshot())
		require.Len(t, entries, 3)
		assert.Equal(t, "B", entries[0].UserID)
		assert.True(t, entries[0].CommissionAmount.Equal(d("100.00")))
		assert.True(t, entries[1].CommissionAmount.Equal(d("50.00")))
		assert.True(t, entries[2].CommissionAmount.Equal(d("20.00")))
		for _, e := range entries {
			assert.Equal(t, "order-1", e.OrderID)
			assert.Equal(t, models.CommissionStatusPending, e.Status)
		}
	})

	t.Run("inactive level is skipped", func(t *testing.T) {
		snapshot := rates.Snapshot{1: d("0.10"), 2: d("0.05")}
		entries := Compute(order, chain, snapshot)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.NotEqual(t, 3, e.Level)
		}
	})

	t.Run("zero rate is skipped", func(t *testing.T) {
		snapshot := rates.Snapshot{1: d("0"), 2: d("0.05")}
		entries := Compute(order, chain[:2], snapshot)
		require.Len(t, entries, 1)
		assert.Equal(t, 2, entries[0].Level)
	})

	t.Run("empty chain", func(t *testing.T) {
		assert.Empty(t, Compute(order, nil, defaultSnapshot()))
	})
}

func TestAmount_RoundsHalfUpToCents(t *testing.T) {
	tests := []struct {
		total, rate, want string
	}{
		{"1000.00", "0.10", "100.00"},
		{"1000.00", "0.05", "50.00"},
		{"12.25", "0.10", "1.23"},
		{"33.33", "0.05", "1.67"},
		{"99.99", "0.02", "2.00"},
		{"0.10", "0.02", "0.00"},
		{"0.25", "0.02", "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.total+"x"+tt.rate, func(t *testing.T) {
			got := Amount(d(tt.total), d(tt.rate))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestGenerate_ScenarioA(t *testing.T) {
	repo := new(mocks.CommissionRepository)
	repo.On("ListByOrder", mock.Anything, "order-1").Return(nil, nil)
	repo.On("InsertIfAbsent", mock.Anything, mock.AnythingOfType("*models.Commission")).Return(true, nil).Twice()

	result, err := newTestService(repo, scenarioGraph(), staticRates{snapshot: defaultSnapshot()}).
		Generate(context.Background(), paidOrder("C", "1000.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeGenerated, result.Outcome)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Entries, 2)

	assert.Equal(t, "B", result.Entries[0].UserID)
	assert.Equal(t, 1, result.Entries[0].Level)
	assert.True(t, result.Entries[0].CommissionAmount.Equal(d("100.00")))
	assert.Equal(t, "A", result.Entries[1].UserID)
	assert.Equal(t, 2, result.Entries[1].Level)
	assert.True(t, result.Entries[1].CommissionAmount.Equal(d("50.00")))
	repo.AssertExpectations(t)
}

func TestGenerate_ScenarioB_InactiveLevelThree(t *testing.T) {
	graph := staticGraph{chains: map[string][]sponsorship.Ancestor{
		"D": {{UserID: "C", Level: 1}, {UserID: "B", Level: 2}, {UserID: "A", Level: 3}},
	}}
	repo := new(mocks.CommissionRepository)
	repo.On("ListByOrder", mock.Anything, "order-1").Return(nil, nil)
	repo.On("InsertIfAbsent", mock.Anything, mock.MatchedBy(func(c *models.Commission) bool {
		return c.Level != 3
	})).Return(true, nil).Twice()

	result, err := newTestService(repo, graph, staticRates{snapshot: rates.Snapshot{1: d("0.10"), 2: d("0.05")}}).
		Generate(context.Background(), paidOrder("D", "200.00"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "InsertIfAbsent", 2)
}

func TestGenerate_ScenarioC_SecondRunIsNoop(t *testing.T) {
	repo := new(mocks.CommissionRepository)
	repo.On("ListByOrder", mock.Anything, "order-1").Return(nil, nil).Once()
	repo.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(true, nil).Twice()

	svc := newTestService(repo, scenarioGraph(), staticRates{snapshot: defaultSnapshot()})
	order := paidOrder("C", "1000.00")

	first, err := svc.Generate(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, OutcomeGenerated, first.Outcome)

	repo.On("ListByOrder", mock.Anything, "order-1").Return(first.Entries, nil).Once()

	second, err := svc.Generate(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyGenerated, second.Outcome)
	assert.Zero(t, second.Created)
	assert.Equal(t, 2, second.Skipped)
	assert.Empty(t, second.Entries)
	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "InsertIfAbsent", 2)
}

func TestGenerate_ExistingEntriesIgnoreChangedChain(t *testing.T) {
	existing := []models.Commission{
		{UserID: "B", OrderID: "order-1", Level: 1, CommissionAmount: d("100.00")},
		{UserID: "A", OrderID: "order-1", Level: 2, CommissionAmount: d("50.00")},
	}
	tests := []struct {
		name     string
		graph    staticGraph
		snapshot rates.Snapshot
	}{
		{
			name: "buyer re-parented",
			graph: staticGraph{chains: map[string][]sponsorship.Ancestor{
				"C": {{UserID: "X", Level: 1}},
			}},
			snapshot: defaultSnapshot(),
		},
		{
			name: "deeper level activated",
			graph: staticGraph{chains: map[string][]sponsorship.Ancestor{
				"C": {{UserID: "B", Level: 1}, {UserID: "A", Level: 2}, {UserID: "R", Level: 3}},
			}},
			snapshot: defaultSnapshot(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.CommissionRepository)
			repo.On("ListByOrder", mock.Anything, "order-1").Return(existing, nil)

			result, err := newTestService(repo, tt.graph, staticRates{snapshot: tt.snapshot}).
				Generate(context.Background(), paidOrder("C", "1000.00"))
			require.NoError(t, err)
			assert.Equal(t, OutcomeAlreadyGenerated, result.Outcome)
			assert.Zero(t, result.Created)
			assert.Equal(t, 2, result.Skipped)
			repo.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerate_ScenarioE_RootBuyer(t *testing.T) {
	repo := new(mocks.CommissionRepository)

	result, err := newTestService(repo, scenarioGraph(), staticRates{snapshot: defaultSnapshot()}).
		Generate(context.Background(), paidOrder("A", "500.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoAncestors, result.Outcome)
	repo.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
}

func TestGenerate_NoActiveRates(t *testing.T) {
	repo := new(mocks.CommissionRepository)

	result, err := newTestService(repo, scenarioGraph(), staticRates{snapshot: rates.Snapshot{}}).
		Generate(context.Background(), paidOrder("C", "500.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoActiveRates, result.Outcome)
	repo.AssertNotCalled(t, "InsertIfAbsent", mock.Anything, mock.Anything)
}

func TestGenerate_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unpaid order", func(t *testing.T) {
		order := paidOrder("C", "10.00")
		order.Status = models.OrderStatusPending
		_, err := newTestService(new(mocks.CommissionRepository), scenarioGraph(), staticRates{snapshot: defaultSnapshot()}).
			Generate(ctx, order)
		assert.ErrorIs(t, err, ErrOrderNotEligible)
	})

	t.Run("cancelled order", func(t *testing.T) {
		order := paidOrder("C", "10.00")
		order.Status = models.OrderStatusCancelled
		_, err := newTestService(new(mocks.CommissionRepository), scenarioGraph(), staticRates{snapshot: defaultSnapshot()}).
			Generate(ctx, order)
		assert.ErrorIs(t, err, ErrOrderNotEligible)
	})

	t.Run("cycle is graph corruption", func(t *testing.T) {
		graph := staticGraph{err: errors.Wrap(sponsorship.ErrCycleDetected, "loop")}
		_, err := newTestService(new(mocks.CommissionRepository), graph, staticRates{snapshot: defaultSnapshot()}).
			Generate(ctx, paidOrder("C", "10.00"))
		assert.ErrorIs(t, err, ErrGraphCorruption)
	})

	t.Run("rate load failure", func(t *testing.T) {
		_, err := newTestService(new(mocks.CommissionRepository), scenarioGraph(), staticRates{err: assert.AnError}).
			Generate(ctx, paidOrder("C", "10.00"))
		assert.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, ErrGraphCorruption)
	})

	t.Run("insert failure aborts", func(t *testing.T) {
		repo := new(mocks.CommissionRepository)
		repo.On("ListByOrder", mock.Anything, "order-1").Return(nil, nil)
		repo.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(true, nil).Once()
		repo.On("InsertIfAbsent", mock.Anything, mock.Anything).Return(false, assert.AnError).Once()

		result, err := newTestService(repo, scenarioGraph(), staticRates{snapshot: defaultSnapshot()}).
			Generate(ctx, paidOrder("C", "1000.00"))
		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, result)
	})
}

func TestGenerateForOrder(t *testing.T) {
	orders := new(mocks.OrderRepository)
	repo := new(mocks.CommissionRepository)
	orders.On("GetByID", mock.Anything, "order-1").Return(paidOrder("A", "10.00"), nil)

	svc := NewService(repo, orders, scenarioGraph(), staticRates{snapshot: defaultSnapshot()}, &NoopMetricsCollector{}, zerolog.Nop())
	result, err := svc.GenerateForOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoAncestors, result.Outcome)
	orders.AssertExpectations(t)
}

func TestGenerate_LevelCap(t *testing.T) {
	chain := []sponsorship.Ancestor{
		{UserID: "p1", Level: 1}, {UserID: "p2", Level: 2}, {UserID: "p3", Level: 3},
	}
	for depth := 0; depth <= len(chain); depth++ {
		entries := Compute(paidOrder("x", "100.00"), chain[:depth], defaultSnapshot())
		assert.Len(t, entries, depth)
	}
}
