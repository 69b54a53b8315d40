// model.go this code defines the data model for the warehouse
package datastore

import "time"

// RawMessageBatch is one ingested message document for a channel over a
// scrape window. The raw store is append-only; rows are never updated.
type RawMessageBatch struct {
	ID          uint      `gorm:"primaryKey"`
	ChannelName string    `gorm:"index:idx_raw_batches_channel;uniqueIndex:idx_raw_batches_channel_file"`
	FilePath    string    `gorm:"uniqueIndex:idx_raw_batches_channel_file"`
	ScrapeDate  string    `gorm:"index:idx_raw_batches_scrape_date"`
	ContentHash string    `gorm:"index:idx_raw_batches_hash"`
	Payload     string    `gorm:"type:text"`
	LoadedAt    time.Time `gorm:"index:idx_raw_batches_loaded_at"`
}

// RawImageDetection is one ingested object-detection document for a processed image.
type RawImageDetection struct {
	ID          uint    `gorm:"primaryKey"`
	FilePath    string  `gorm:"uniqueIndex:idx_raw_detections_file_path"`
	FileName    string  `gorm:"index:idx_raw_detections_file_name"`
	ChannelName *string `gorm:"index:idx_raw_detections_channel"`
	Payload     string  `gorm:"type:text"`
	LoadedAt    time.Time
}

// StagingMessage is one normalized message, unique per (message_id, channel_name).
// The table is fully recomputed each run. Nullable source fields use pointers so
// an uncastable field stays null instead of defaulting.
type StagingMessage struct {
	ID          uint   `gorm:"primaryKey"`
	MessageID   int64  `gorm:"uniqueIndex:idx_staging_message_channel"`
	ChannelName string `gorm:"uniqueIndex:idx_staging_message_channel;index:idx_staging_channel"`
	ChannelID   *int64
	SenderID    *int64

	MessageText string     `gorm:"type:text"`
	MessageDate *time.Time `gorm:"index:idx_staging_message_date"`

	SenderUsername  *string
	SenderFirstName *string
	SenderLastName  *string

	MediaType      *string
	MediaFileID    *string
	MediaFileSize  *int64
	MediaMimeType  *string
	LocalMediaPath *string

	LoadedAt time.Time

	// Derived classification flags, pure functions of the fields above.
	HasText                 bool
	HasMedia                bool
	MessageLength           int
	ContainsMedicalKeywords bool
	ContainsPriceInfo       bool
}

// ChannelProfile is the channel dimension, one row per channel_name.
type ChannelProfile struct {
	ID          uint   `gorm:"primaryKey"`
	ChannelName string `gorm:"uniqueIndex:idx_channel_profiles_name"`

	MessageCount        int
	MediaCount          int
	MedicalMessageCount int
	PriceMessageCount   int
	AvgMessageLength    float64
	DistinctSenders     int
	FirstMessageDate    *time.Time
	LastMessageDate     *time.Time

	// Percentages are rounded to 2 decimals and guarded to 0 for empty channels.
	MedicalContentPercentage float64
	MediaPercentage          float64
	PricePercentage          float64

	Category      string `gorm:"index:idx_channel_profiles_category"`
	Priority      string
	ActivityLevel string
	ChannelType   string
}

// CalendarDay is the date dimension, one row per date with no gaps from the
// configured start through one year past the generation as-of date.
type CalendarDay struct {
	ID   uint   `gorm:"primaryKey"`
	Date string `gorm:"uniqueIndex:idx_calendar_days_date"` // YYYY-MM-DD

	Year      int
	Month     int
	Day       int
	DayOfWeek int // Monday=1 .. Sunday=7
	DayOfYear int
	ISOWeek   int
	Quarter   int
	MonthName string
	DayName   string

	FiscalYear    int
	FiscalQuarter int

	IsWeekend     bool
	IsBusinessDay bool
	IsMonthEnd    bool
	IsQuarterEnd  bool
	IsYearEnd     bool
	Season        string

	// Relative flags are computed against GeneratedAsOf and go stale between
	// regenerations; consumers needing fresh flags must regenerate or compute
	// them at query time.
	IsCurrentDate bool
	IsYesterday   bool
	IsTomorrow    bool
	IsLast7Days   bool
	IsLast30Days  bool
	IsLast90Days  bool
	IsLastYear    bool

	GeneratedAsOf time.Time
}

// MessageFact is one row per staging message, left-joined to the channel and
// date dimensions. Nil dimension keys are a documented null-path, not corruption.
type MessageFact struct {
	ID          uint   `gorm:"primaryKey"`
	MessageID   int64  `gorm:"index:idx_message_facts_message_channel"`
	ChannelName string `gorm:"index:idx_message_facts_message_channel;index:idx_message_facts_channel"`

	ChannelKey *uint `gorm:"index:idx_message_facts_channel_key"`
	DateKey    *uint `gorm:"index:idx_message_facts_date_key"`

	MessageDate   *time.Time
	MessageLength int
	HasText       bool
	HasMedia      bool

	ContainsMedicalKeywords bool
	ContainsPriceInfo       bool

	MessageLengthCategory string
	MessageType           string `gorm:"index:idx_message_facts_type"`
	ContentType           string

	// Engagement metrics are not yet populated by the upstream scraper.
	// Kept as explicit placeholders so consumers see the group, not a gap.
	ViewCount     int
	ForwardCount  int
	ReplyCount    int
	HasEngagement bool
}

// DetectionRecord is one row per detected object within a processed image.
// MessageID is a best-effort link parsed from the image file name and may be nil.
type DetectionRecord struct {
	ID          uint    `gorm:"primaryKey"`
	SourceFile  string  `gorm:"index:idx_detection_records_source"`
	ImageName   string
	ChannelName *string `gorm:"index:idx_detection_records_channel"`
	MessageID   *int64  `gorm:"index:idx_detection_records_message"`

	ClassName       string `gorm:"index:idx_detection_records_class"`
	ClassID         int
	Confidence      float64
	ConfidenceLevel string `gorm:"index:idx_detection_records_level"`
	ObjectCategory  string

	BboxX1                 float64
	BboxY1                 float64
	BboxX2                 float64
	BboxY2                 float64
	BboxWidth              float64
	BboxHeight             float64
	Area                   float64
	RelativeAreaPercentage float64

	IsMedicalRelated bool
	DetectionTime    *time.Time

	// Image-level analysis summary carried onto every row of the image.
	TotalObjects      int
	MedicalObjects    int
	PrimaryObject     string
	PrimaryConfidence float64
	ConfidenceAvg     float64
	ContentType       string
	DetectedClasses   string `gorm:"type:text"` // JSON-encoded list of class names

	ModelUsed           string
	ConfidenceThreshold float64
}
