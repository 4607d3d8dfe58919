package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mmdatafocus/tradeportal_backend/appctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type scopedRow struct {
	ID         int
	BusinessId string
	Name       string
}

type globalRow struct {
	ID   int
	Name string
}

func openGuardedDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "guard.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.Use(NewTenantGuardPlugin()))
	require.NoError(t, conn.AutoMigrate(&scopedRow{}, &globalRow{}))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	rows := []scopedRow{
		{BusinessId: "biz-a", Name: "a1"},
		{BusinessId: "biz-a", Name: "a2"},
		{BusinessId: "biz-b", Name: "b1"},
	}
	require.NoError(t, conn.Create(&rows).Error)
	require.NoError(t, conn.Create(&[]globalRow{{Name: "g1"}, {Name: "g2"}}).Error)
	return conn
}

func TestTenantGuardScopesQueries(t *testing.T) {
	conn := openGuardedDB(t)
	ctx := appctx.Set(context.Background(), appctx.ContextKeyBusinessId, "biz-a")

	var rows []scopedRow
	require.NoError(t, conn.WithContext(ctx).Find(&rows).Error)
	assert.Len(t, rows, 2)

	var count int64
	require.NoError(t, conn.WithContext(ctx).Model(&scopedRow{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// tables without business_id are left alone
	var globals []globalRow
	require.NoError(t, conn.WithContext(ctx).Find(&globals).Error)
	assert.Len(t, globals, 2)
}

func TestTenantGuardScopesWrites(t *testing.T) {
	conn := openGuardedDB(t)
	ctx := appctx.Set(context.Background(), appctx.ContextKeyBusinessId, "biz-b")

	result := conn.WithContext(ctx).Model(&scopedRow{}).Where("name LIKE ?", "%1").Update("name", "renamed")
	require.NoError(t, result.Error)
	assert.EqualValues(t, 1, result.RowsAffected)

	result = conn.WithContext(ctx).Where("name = ?", "a2").Delete(&scopedRow{})
	require.NoError(t, result.Error)
	assert.EqualValues(t, 0, result.RowsAffected)

	var renamed scopedRow
	require.NoError(t, conn.Where("business_id = ? AND name = ?", "biz-a", "a1").Take(&renamed).Error)
	assert.Equal(t, "a1", renamed.Name)
}

func TestTenantGuardBypass(t *testing.T) {
	conn := openGuardedDB(t)
	base := appctx.Set(context.Background(), appctx.ContextKeyBusinessId, "biz-a")

	var rows []scopedRow
	skip := appctx.Set(base, appctx.ContextKeySkipTenantScope, true)
	require.NoError(t, conn.WithContext(skip).Find(&rows).Error)
	assert.Len(t, rows, 3)

	admin := appctx.Set(base, appctx.ContextKeyIsAdmin, true)
	require.NoError(t, conn.WithContext(admin).Find(&rows).Error)
	assert.Len(t, rows, 3)

	// an explicit business filter wins over the context
	require.NoError(t, conn.WithContext(base).Where("business_id = ?", "biz-b").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "b1", rows[0].Name)
}
