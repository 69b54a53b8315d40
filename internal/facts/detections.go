// detections.go: flattens detection documents into the detection fact table
package facts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/errors"
	"github.com/yosefw/medlake-go/internal/ingest"
	"github.com/yosefw/medlake-go/internal/logging"
	"github.com/yosefw/medlake-go/internal/observability"
)

// DetectionStats summarizes one detection fact rebuild.
type DetectionStats struct {
	Rows               int
	MalformedDocs      int
	UnlinkedDetections int
}

// DetectionBuilder recomputes the detection fact table from raw detection
// documents, one row per detected object.
type DetectionBuilder struct {
	store   datastore.Interface
	metrics *observability.Metrics
	log     *slog.Logger
}

// NewDetectionBuilder creates a DetectionBuilder. metrics may be nil.
func NewDetectionBuilder(store datastore.Interface, metrics *observability.Metrics) *DetectionBuilder {
	return &DetectionBuilder{
		store:   store,
		metrics: metrics,
		log:     logging.ForService("facts"),
	}
}

// Rebuild flattens every raw detection document and swaps the fact table in
// one transaction.
func (b *DetectionBuilder) Rebuild() (DetectionStats, error) {
	start := time.Now()
	var stats DetectionStats

	raw, err := b.store.GetAllRawDetections()
	if err != nil {
		return stats, errors.New(fmt.Errorf("reading raw detections: %w", err)).
			Component("facts").
			Category(errors.CategoryDatabase).
			Build()
	}

	var rows []datastore.DetectionRecord
	for i := range raw {
		source := &raw[i]

		var doc ingest.DetectionDocument
		if err := json.Unmarshal([]byte(source.Payload), &doc); err != nil {
			stats.MalformedDocs++
			b.log.Error("Skipping malformed detection document",
				"file_name", source.FileName,
				"error", err)
			continue
		}

		records := FlattenDetections(&doc, source)
		for j := range records {
			if records[j].MessageID == nil {
				stats.UnlinkedDetections++
			}
		}
		rows = append(rows, records...)
	}

	if err := b.store.ReplaceDetectionRecords(rows); err != nil {
		return stats, errors.New(fmt.Errorf("replacing detection records: %w", err)).
			Component("facts").
			Category(errors.CategoryDatabase).
			Build()
	}

	stats.Rows = len(rows)
	b.metrics.RecordTableRows("detection_records", stats.Rows)
	b.metrics.RecordPassDuration("detection_facts", time.Since(start).Seconds())
	b.log.Info("Detection fact table rebuilt",
		"rows", stats.Rows,
		"malformed_docs", stats.MalformedDocs,
		"unlinked", stats.UnlinkedDetections,
		"duration", time.Since(start))
	return stats, nil
}

// FlattenDetections turns one detection document into fact rows, one per
// detected object. Pure function, exported for direct testing.
func FlattenDetections(doc *ingest.DetectionDocument, source *datastore.RawImageDetection) []datastore.DetectionRecord {
	imageName := sourceImageName(doc, source)
	messageID := leadingMessageID(imageName)
	detectedClasses, _ := json.Marshal(doc.Analysis.DetectedClasses)

	rows := make([]datastore.DetectionRecord, 0, len(doc.Detections))
	for i := range doc.Detections {
		det := &doc.Detections[i]
		width := det.Bbox.X2 - det.Bbox.X1
		height := det.Bbox.Y2 - det.Bbox.Y1

		record := datastore.DetectionRecord{
			SourceFile:  source.FilePath,
			ImageName:   imageName,
			ChannelName: source.ChannelName,
			MessageID:   messageID,

			ClassName:       det.ClassName,
			ClassID:         det.ClassID,
			Confidence:      det.Confidence,
			ConfidenceLevel: confidenceLevel(det.Confidence),
			ObjectCategory:  objectCategory(det.IsMedicalRelated),

			BboxX1:                 det.Bbox.X1,
			BboxY1:                 det.Bbox.Y1,
			BboxX2:                 det.Bbox.X2,
			BboxY2:                 det.Bbox.Y2,
			BboxWidth:              width,
			BboxHeight:             height,
			Area:                   det.Area,
			RelativeAreaPercentage: relativeAreaPercentage(det.Area, width, height),

			IsMedicalRelated: det.IsMedicalRelated,
			DetectionTime:    parseDetectionTime(det.DetectionTime),

			TotalObjects:      doc.Analysis.TotalObjects,
			MedicalObjects:    doc.Analysis.MedicalObjects,
			PrimaryObject:     doc.Analysis.PrimaryObject,
			PrimaryConfidence: doc.Analysis.PrimaryConfidence,
			ConfidenceAvg:     doc.Analysis.ConfidenceAvg,
			ContentType:       doc.Analysis.ContentType,
			DetectedClasses:   string(detectedClasses),

			ModelUsed:           doc.Metadata.ModelUsed,
			ConfidenceThreshold: doc.Metadata.ConfidenceThreshold,
		}
		rows = append(rows, record)
	}
	return rows
}

// sourceImageName resolves the processed image's own name. The document's
// metadata records it directly; older documents without the block fall back to
// the detection file's stem.
func sourceImageName(doc *ingest.DetectionDocument, source *datastore.RawImageDetection) string {
	if doc.Metadata.ImageName != "" {
		return doc.Metadata.ImageName
	}
	if doc.Metadata.ImagePath != "" {
		// Recorded with either separator, depending on where detection ran
		p := strings.ReplaceAll(doc.Metadata.ImagePath, `\`, "/")
		if i := strings.LastIndex(p, "/"); i >= 0 {
			p = p[i+1:]
		}
		return p
	}
	return strings.TrimSuffix(source.FileName, ".json")
}

// confidenceLevel buckets a detection confidence score.
func confidenceLevel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "high"
	case confidence >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

func objectCategory(isMedicalRelated bool) string {
	if isMedicalRelated {
		return "medical"
	}
	return "non_medical"
}

// relativeAreaPercentage is the detection's share of its own bounding box,
// rounded to 2 decimals. A degenerate box yields 0, never an error.
func relativeAreaPercentage(area, width, height float64) float64 {
	boxArea := width * height
	if boxArea <= 0 {
		return 0
	}
	return math.Round(area/boxArea*100*100) / 100
}

// leadingMessageID parses the message link heuristic: image filenames carry
// their message id as a leading numeric token. No leading digits means the
// detection stays unlinked, the row is kept with a null message id.
func leadingMessageID(imageName string) *int64 {
	end := 0
	for end < len(imageName) && imageName[end] >= '0' && imageName[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	id, err := strconv.ParseInt(imageName[:end], 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func parseDetectionTime(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t
		}
	}
	return nil
}
