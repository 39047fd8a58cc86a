package repositories

import (
	"fmt"
	"testing"
	"time"

	"mlm/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, sponsor *models.User) *models.User {
	t.Helper()
	user := &models.User{
		Email:         name + "@example.com",
		Password:      "x",
		Name:          name,
		IBONumber:     "IBO-" + name,
		SponsorNumber: "SP-" + name,
	}
	if sponsor != nil {
		user.SponsorID = &sponsor.ID
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedOrder(t *testing.T, db *gorm.DB, buyer *models.User, number, total string) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:      buyer.ID,
		OrderNumber: number,
		TotalAmount: decimal.RequireFromString(total),
		Status:      models.OrderStatusProcessing,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedCommission(t *testing.T, db *gorm.DB, earner *models.User, order *models.Order, level int, amount string, at time.Time) *models.Commission {
	t.Helper()
	c := &models.Commission{
		UserID:           earner.ID,
		OrderID:          order.ID,
		Level:            level,
		Rate:             decimal.RequireFromString("0.10"),
		CommissionAmount: decimal.RequireFromString(amount),
		CreatedAt:        at,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
