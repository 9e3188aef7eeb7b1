// Package testutil 提供测试用的内存数据库。
package testutil

import (
	"karmafeed/internal/config"
	"karmafeed/internal/db"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB creates a migrated in-memory SQLite database that is closed when the test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Open(&config.Config{DatabaseDriver: "sqlite", DatabaseURL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() {
		_ = db.Close(conn)
	})
	return conn
}

// TestConfig returns a valid configuration pointing at an in-memory database.
func TestConfig() *config.Config {
	return &config.Config{
		Port:                   "0",
		AppEnv:                 "test",
		GinMode:                "test",
		LogLevel:               "error",
		DatabaseDriver:         "sqlite",
		DatabaseURL:            ":memory:",
		CacheSize:              100,
		LeaderboardSize:        5,
		LeaderboardWindow:      24 * time.Hour,
		LeaderboardCacheTTL:    time.Minute,
		LeaderboardRefreshSpec: "@every 1m",
		DisplayTimezone:        "Asia/Kolkata",
		MaxTextLength:          10000,
		MetricsEnabled:         true,
	}
}
