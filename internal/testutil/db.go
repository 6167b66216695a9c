// Package testutil 测试用的内存数据库
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lawdesk/internal/core/database"
)

// NewDB 每个测试独立的 sqlite 内存库，已完成迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:mem_%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: dsn, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
