// interfaces.go: this code defines the interface for the warehouse store operations
package datastore

import (
	"fmt"
	"time"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/errors"
	"gorm.io/gorm"
)

// insertBatchSize bounds the number of rows per INSERT during table rebuilds.
const insertBatchSize = 500

// Interface abstracts the underlying database implementation and defines the
// operations the pipeline and an external read surface need.
type Interface interface {
	Open() error
	Close() error

	// Raw store (append-only)
	InsertRawBatch(batch *RawMessageBatch) error
	HasRawBatch(channelName, filePath string) (bool, error)
	GetAllRawBatches() ([]RawMessageBatch, error)
	InsertRawDetection(detection *RawImageDetection) error
	HasRawDetection(filePath string) (bool, error)
	GetAllRawDetections() ([]RawImageDetection, error)

	// Derived tables, fully recomputed per run
	ReplaceStagingMessages(rows []StagingMessage) error
	GetAllStagingMessages() ([]StagingMessage, error)
	ReplaceChannelProfiles(rows []ChannelProfile) error
	ReplaceCalendarDays(rows []CalendarDay) error
	ReplaceMessageFacts(rows []MessageFact) error
	ReplaceDetectionRecords(rows []DetectionRecord) error

	// Read surface for an external reporting layer
	GetChannelProfiles() ([]ChannelProfile, error)
	GetChannelProfile(channelName string) (ChannelProfile, error)
	GetCalendarDays(from, to string) ([]CalendarDay, error)
	SearchMessageFacts(filter MessageFactFilter) ([]MessageFact, error)
	SearchDetectionRecords(filter DetectionFilter) ([]DetectionRecord, error)
	GetTableCounts() (TableCounts, error)
	GetChannelActivity(channelName string) ([]DailyActivity, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new DataStore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// InsertRawBatch appends one raw message document to the raw store.
func (ds *DataStore) InsertRawBatch(batch *RawMessageBatch) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryConnectivity).
			Priority(errors.PriorityCritical).
			Build()
	}
	if batch.LoadedAt.IsZero() {
		batch.LoadedAt = time.Now()
	}
	if err := ds.DB.Create(batch).Error; err != nil {
		return errors.New(fmt.Errorf("inserting raw batch: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("channel", batch.ChannelName).
			Build()
	}
	return nil
}

// HasRawBatch reports whether a file has already been loaded for a channel.
func (ds *DataStore) HasRawBatch(channelName, filePath string) (bool, error) {
	var count int64
	err := ds.DB.Model(&RawMessageBatch{}).
		Where("channel_name = ? AND file_path = ?", channelName, filePath).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking raw batch existence: %w", err)
	}
	return count > 0, nil
}

// GetAllRawBatches retrieves all raw batches ordered by load time.
func (ds *DataStore) GetAllRawBatches() ([]RawMessageBatch, error) {
	var batches []RawMessageBatch
	if err := ds.DB.Order("loaded_at ASC, id ASC").Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("getting raw batches: %w", err)
	}
	return batches, nil
}

// InsertRawDetection appends one detection document to the raw store.
func (ds *DataStore) InsertRawDetection(detection *RawImageDetection) error {
	if detection.LoadedAt.IsZero() {
		detection.LoadedAt = time.Now()
	}
	if err := ds.DB.Create(detection).Error; err != nil {
		return errors.New(fmt.Errorf("inserting raw detection: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("file_name", detection.FileName).
			Build()
	}
	return nil
}

// HasRawDetection reports whether a detection file has already been loaded.
func (ds *DataStore) HasRawDetection(filePath string) (bool, error) {
	var count int64
	err := ds.DB.Model(&RawImageDetection{}).
		Where("file_path = ?", filePath).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking raw detection existence: %w", err)
	}
	return count > 0, nil
}

// GetAllRawDetections retrieves all raw detection documents ordered by load time.
func (ds *DataStore) GetAllRawDetections() ([]RawImageDetection, error) {
	var detections []RawImageDetection
	if err := ds.DB.Order("loaded_at ASC, id ASC").Find(&detections).Error; err != nil {
		return nil, fmt.Errorf("getting raw detections: %w", err)
	}
	return detections, nil
}

// replaceAll swaps the full contents of a derived table inside one transaction
// so concurrent readers never observe a half-rebuilt table.
func replaceAll[T any](ds *DataStore, rows []T) error {
	var model T
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model).Error; err != nil {
			return fmt.Errorf("clearing table: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("inserting rebuilt rows: %w", err)
		}
		return nil
	})
}

// ReplaceStagingMessages recomputes the staging table wholesale.
func (ds *DataStore) ReplaceStagingMessages(rows []StagingMessage) error {
	return replaceAll(ds, rows)
}

// GetAllStagingMessages retrieves all normalized messages.
func (ds *DataStore) GetAllStagingMessages() ([]StagingMessage, error) {
	var messages []StagingMessage
	if err := ds.DB.Order("channel_name ASC, message_id ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("getting staging messages: %w", err)
	}
	return messages, nil
}

// ReplaceChannelProfiles recomputes the channel dimension wholesale.
func (ds *DataStore) ReplaceChannelProfiles(rows []ChannelProfile) error {
	return replaceAll(ds, rows)
}

// ReplaceCalendarDays recomputes the date dimension wholesale.
func (ds *DataStore) ReplaceCalendarDays(rows []CalendarDay) error {
	return replaceAll(ds, rows)
}

// ReplaceMessageFacts recomputes the message fact table wholesale.
func (ds *DataStore) ReplaceMessageFacts(rows []MessageFact) error {
	return replaceAll(ds, rows)
}

// ReplaceDetectionRecords recomputes the detection fact table wholesale.
func (ds *DataStore) ReplaceDetectionRecords(rows []DetectionRecord) error {
	return replaceAll(ds, rows)
}
