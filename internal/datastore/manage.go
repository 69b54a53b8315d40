package datastore

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yosefw/medlake-go/internal/errors"
	"github.com/yosefw/medlake-go/internal/logging"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. Full-table rebuilds routinely batch hundreds of rows per
// statement, so anything under a second is normal.
const DefaultSlowQueryThreshold = 1 * time.Second

var (
	storeLogger     *slog.Logger
	storeLoggerOnce sync.Once
)

// getLogger returns the datastore service logger, initializing it on first use.
func getLogger() *slog.Logger {
	storeLoggerOnce.Do(func() {
		storeLogger = logging.ForService("datastore")
	})
	return storeLogger
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.Default.LogMode(gormlogger.Warn)
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	migrationStart := time.Now()
	log := getLogger().With("db_type", dbType)

	tableMappings := []struct {
		model any
		name  string
	}{
		{&RawMessageBatch{}, "raw_message_batches"},
		{&RawImageDetection{}, "raw_image_detections"},
		{&StagingMessage{}, "staging_messages"},
		{&ChannelProfile{}, "channel_profiles"},
		{&CalendarDay{}, "calendar_days"},
		{&MessageFact{}, "message_facts"},
		{&DetectionRecord{}, "detection_records"},
	}

	for _, table := range tableMappings {
		tableStart := time.Now()
		if err := db.AutoMigrate(table.model); err != nil {
			enhancedErr := errors.New(fmt.Errorf("migrating table %s: %w", table.name, err)).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("db_type", dbType).
				Context("table", table.name).
				Priority(errors.PriorityCritical).
				Build()
			log.Error("Table migration failed",
				"table", table.name,
				"error", enhancedErr)
			return enhancedErr
		}
		if debug {
			log.Debug("Table migration completed",
				"table", table.name,
				"duration", time.Since(tableStart))
		}
	}

	if debug {
		log.Debug("Database migration completed",
			"connection", connectionInfo,
			"tables_migrated", len(tableMappings),
			"total_duration", time.Since(migrationStart))
	}

	return nil
}
