package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/post-scheduler/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// busyTimeoutPragma makes concurrent writers wait instead of failing with SQLITE_BUSY.
const busyTimeoutPragma = "_pragma=busy_timeout(5000)"

// InitDB opens the SQLite database at dbPath and runs migrations.
func InitDB(dbPath string, logMode logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	// SQLite has a single writer; one connection serializes access and
	// keeps an in-memory database alive for the life of the pool.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Account{}, &models.Post{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func withPragmas(dbPath string) string {
	if strings.Contains(dbPath, "_pragma=busy_timeout") {
		return dbPath
	}
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + busyTimeoutPragma
	}
	return dbPath + "?" + busyTimeoutPragma
}
