// Package dbtest opens isolated stores for tests.
package dbtest

import (
	"testing"

	"readlater/internal/config"
	"readlater/internal/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory sqlite store that lives for the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect("sqlite://:memory:", config.DBConfig{}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAndIndexes(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
