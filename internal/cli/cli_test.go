package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"mlm/internal/models"
	"mlm/internal/repositories"
	"mlm/internal/routes"
	"mlm/internal/services/user"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newServices(t *testing.T) *routes.Services {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), repositories.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repositories.Migrate(db))
	return routes.BuildServices(db, nil, nil)
}

func run(t *testing.T, svc *routes.Services, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(func() (*routes.Services, func(), error) {
		return svc, func() {}, nil
	})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRatesCommands(t *testing.T) {
	svc := newServices(t)

	out, err := run(t, svc, "rates", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "reset 3 levels")

	out, err = run(t, svc, "rates", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "level 1 pays 10%")
	assert.Contains(t, out, "level 3 pays 2%")
}

func TestGenerateAndPay(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	_, err := svc.Rates.ResetToDefaults(ctx)
	require.NoError(t, err)

	sponsor, err := svc.Users.Register(ctx, user.RegisterInput{Email: "s@example.com", Password: "s3cret!pass", Name: "Sam"})
	require.NoError(t, err)
	buyer, err := svc.Users.Register(ctx, user.RegisterInput{
		Email: "b@example.com", Password: "s3cret!pass", Name: "Bea", ReferralCode: sponsor.IBONumber,
	})
	require.NoError(t, err)

	order := &models.Order{
		UserID:      buyer.ID,
		OrderNumber: "MLO-TEST-00001",
		TotalAmount: decimal.RequireFromString("250.00"),
		Status:      models.OrderStatusProcessing,
	}
	require.NoError(t, svc.DB.Create(order).Error)

	out, err := run(t, svc, "commissions", "generate", order.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "generated, 1 created")
	assert.Contains(t, out, "25.00")

	out, err = run(t, svc, "commissions", "generate", order.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "already_generated")

	out, err = run(t, svc, "commissions", "payables")
	require.NoError(t, err)
	assert.Contains(t, out, sponsor.IBONumber)

	_, err = run(t, svc, "payouts", "pay", sponsor.ID, "--cutoff", "yesterday")
	assert.Error(t, err)

	out, err = run(t, svc, "payouts", "pay", sponsor.ID, "--note", "cli run")
	require.NoError(t, err)
	assert.Contains(t, out, "1 commissions, 25.00")

	out, err = run(t, svc, "payouts", "pay", sponsor.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to pay")
}
