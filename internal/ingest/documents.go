// documents.go: wire formats for the raw JSON documents produced by the scraper
// and the image detection stage. Optional source fields use pointers so absent
// values survive as nulls instead of zero defaults.
package ingest

import (
	"encoding/json"
	"errors"
)

// IsCastError reports whether a decode error is a field-level type mismatch
// rather than a malformed document. The decoder keeps decoding past such
// fields, so the document stays usable with the offending fields left null.
func IsCastError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// MessageDocument is one scraped snapshot of a channel over a scrape window.
type MessageDocument struct {
	Metadata MessageMetadata `json:"metadata"`
	Messages []RawMessage    `json:"messages"`
}

// MessageMetadata describes the scrape window the document covers.
type MessageMetadata struct {
	ChannelName  string    `json:"channel_name"`
	ScrapeDate   string    `json:"scrape_date"`
	MessageCount int       `json:"message_count"`
	DateRange    DateRange `json:"date_range"`
}

// DateRange bounds the message dates within a document.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RawMessage is one message as emitted by the scraper.
type RawMessage struct {
	ID             int64       `json:"id"`
	ChannelID      *int64      `json:"channel_id"`
	SenderID       *int64      `json:"sender_id"`
	Text           *string     `json:"text"`
	Date           *string     `json:"date"`
	SenderInfo     *SenderInfo `json:"sender_info"`
	Media          *MediaInfo  `json:"media"`
	LocalMediaPath *string     `json:"local_media_path"`
	Views          *int        `json:"views"`
	Forwards       *int        `json:"forwards"`
	Replies        *int        `json:"replies"`
}

// SenderInfo is the nested sender block of a message.
type SenderInfo struct {
	ID        *int64  `json:"id"`
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// MediaInfo is the nested media block of a message.
type MediaInfo struct {
	Type     *string `json:"type"`
	FileID   *string `json:"file_id"`
	FileSize *int64  `json:"file_size"`
	MimeType *string `json:"mime_type"`
}

// DetectionDocument is the object detection output for one processed image.
type DetectionDocument struct {
	Detections []Detection       `json:"detections"`
	Analysis   DetectionAnalysis `json:"analysis"`
	Metadata   DetectionMetadata `json:"metadata"`
}

// Detection is one detected object with its bounding box.
type Detection struct {
	ClassName        string      `json:"class_name"`
	Confidence       float64     `json:"confidence"`
	ClassID          int         `json:"class_id"`
	Bbox             BoundingBox `json:"bbox"`
	Area             float64     `json:"area"`
	IsMedicalRelated bool        `json:"is_medical_related"`
	DetectionTime    *string     `json:"detection_time"`
}

// BoundingBox is pixel coordinates of a detected object, origin top-left.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// DetectionAnalysis summarizes all detections within one image.
type DetectionAnalysis struct {
	TotalObjects      int      `json:"total_objects"`
	MedicalObjects    int      `json:"medical_objects"`
	PrimaryObject     string   `json:"primary_object"`
	PrimaryConfidence float64  `json:"primary_confidence"`
	ConfidenceAvg     float64  `json:"confidence_avg"`
	ContentType       string   `json:"content_type"`
	DetectedClasses   []string `json:"detected_classes"`
}

// DetectionMetadata describes the source image and the model run that produced
// the document. ImagePath is the processed image's own path, which carries the
// channel directory; the detection JSON itself lives elsewhere.
type DetectionMetadata struct {
	ImagePath           string  `json:"image_path"`
	ImageName           string  `json:"image_name"`
	DetectionTime       *string `json:"detection_time"`
	ModelUsed           string  `json:"model_used"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}
