package testfixtures

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"medisync/internal/db"
)

// NewGormDB opens a migrated SQLite database in a temporary directory.
// The connection is closed when the test finishes.
func NewGormDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "medisync.db")
	gormDB, err := db.Open("sqlite", path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}
