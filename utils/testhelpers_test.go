package utils

import (
	"io"
	"log"
	"testing"

	"linkedcrm/config"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema. A single
// connection keeps the in-memory database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.MigrateDB(db))
	return db
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "TEST: ", log.LstdFlags)
}

// gormModel builds an embedded gorm.Model with a fixed ID for fixtures that
// never touch the database.
func gormModel(id uint) gorm.Model {
	return gorm.Model{ID: id}
}
