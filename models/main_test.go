package models

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestBusiness opens a fresh sqlite file, migrates it and returns a context scoped to a new business.
// sqlite has no row locks; the FOR UPDATE clauses are dropped by the dialect.
func newTestBusiness(t *testing.T) context.Context {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "tradeportal.db") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.SetDB(conn))
	require.NoError(t, MigrateTable())
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	ctx := utils.SetUserIdInContext(context.Background(), 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")
	ctx = utils.SetUserRoleInContext(ctx, string(UserRoleParent))

	business, err := CreateBusiness(ctx, &NewBusiness{Name: "Test Biz"})
	require.NoError(t, err)
	return utils.SetBusinessIdInContext(ctx, business.ID)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func mustCompany(t *testing.T, ctx context.Context, name string, isParent bool, opening int64) *Company {
	t.Helper()
	company, err := CreateCompany(ctx, &NewCompany{
		Name:           name,
		IsParent:       &isParent,
		OpeningBalance: dec(opening),
	})
	require.NoError(t, err)
	return company
}

func reloadCompany(t *testing.T, ctx context.Context, id int) *Company {
	t.Helper()
	company, err := GetCompany(ctx, id)
	require.NoError(t, err)
	return company
}

func requireDecimal(t *testing.T, expected int64, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, actual.Equal(dec(expected)), "expected %d, got %s %v", expected, actual.String(), msgAndArgs)
}

func requireNoDrift(t *testing.T, ctx context.Context) {
	t.Helper()
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	drifts, err := AuditLedger(ctx, businessId)
	require.NoError(t, err)
	require.Empty(t, drifts)
}
