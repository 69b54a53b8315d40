package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/ingest"
)

func strPtr(s string) *string { return &s }

func sampleDoc() *ingest.DetectionDocument {
	return &ingest.DetectionDocument{
		Detections: []ingest.Detection{
			{
				ClassName:        "bottle",
				Confidence:       0.82,
				ClassID:          39,
				Bbox:             ingest.BoundingBox{X1: 10, Y1: 20, X2: 110, Y2: 220},
				Area:             15000,
				IsMedicalRelated: true,
				DetectionTime:    strPtr("2025-03-10T12:00:00+00:00"),
			},
			{
				ClassName:  "person",
				Confidence: 0.60,
				ClassID:    0,
				Bbox:       ingest.BoundingBox{X1: 0, Y1: 0, X2: 50, Y2: 100},
				Area:       5000,
			},
			{
				ClassName:  "chair",
				Confidence: 0.30,
				ClassID:    56,
				Bbox:       ingest.BoundingBox{X1: 5, Y1: 5, X2: 5, Y2: 90},
				Area:       100,
			},
		},
		Analysis: ingest.DetectionAnalysis{
			TotalObjects:      3,
			MedicalObjects:    1,
			PrimaryObject:     "bottle",
			PrimaryConfidence: 0.82,
			ConfidenceAvg:     0.573,
			ContentType:       "medical_product",
			DetectedClasses:   []string{"bottle", "person", "chair"},
		},
		Metadata: ingest.DetectionMetadata{
			ModelUsed:           "yolov8n",
			ConfidenceThreshold: 0.25,
		},
	}
}

func TestFlattenDetectionsOneRowPerObject(t *testing.T) {
	t.Parallel()

	source := &datastore.RawImageDetection{
		FilePath:    "data/enriched/detections/4217_photo.json",
		FileName:    "4217_photo.json",
		ChannelName: strPtr("tikvahpharma"),
	}
	rows := FlattenDetections(sampleDoc(), source)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "bottle", first.ClassName)
	assert.Equal(t, 39, first.ClassID)
	assert.Equal(t, "4217_photo", first.ImageName)
	require.NotNil(t, first.MessageID)
	assert.Equal(t, int64(4217), *first.MessageID)
	require.NotNil(t, first.ChannelName)
	assert.Equal(t, "tikvahpharma", *first.ChannelName)
	assert.Equal(t, "medical", first.ObjectCategory)
	require.NotNil(t, first.DetectionTime)

	assert.Equal(t, 100.0, first.BboxWidth)
	assert.Equal(t, 200.0, first.BboxHeight)
	// 15000 / 20000 * 100
	assert.InDelta(t, 75.0, first.RelativeAreaPercentage, 0.001)

	// Analysis summary carried onto every row
	for _, r := range rows {
		assert.Equal(t, 3, r.TotalObjects)
		assert.Equal(t, "bottle", r.PrimaryObject)
		assert.Equal(t, "yolov8n", r.ModelUsed)
		assert.JSONEq(t, `["bottle","person","chair"]`, r.DetectedClasses)
	}

	second := rows[1]
	assert.Equal(t, "non_medical", second.ObjectCategory)
	assert.Nil(t, second.DetectionTime)
}

func TestFlattenDetectionsUsesMetadataImageName(t *testing.T) {
	t.Parallel()

	// The fact row names the processed image, not the detection JSON, and
	// the message link parses from the image's own name.
	doc := sampleDoc()
	doc.Metadata.ImagePath = "data/raw/media/tikvahpharma/4217_photo.jpg"
	doc.Metadata.ImageName = "4217_photo.jpg"

	source := &datastore.RawImageDetection{
		FilePath: "data/enriched/detections/4217_photo_detections.json",
		FileName: "4217_photo_detections.json",
	}
	rows := FlattenDetections(doc, source)
	require.Len(t, rows, 3)
	assert.Equal(t, "4217_photo.jpg", rows[0].ImageName)
	require.NotNil(t, rows[0].MessageID)
	assert.Equal(t, int64(4217), *rows[0].MessageID)

	// Without image_name the base of image_path serves, separators aside
	doc.Metadata.ImageName = ""
	rows = FlattenDetections(doc, source)
	assert.Equal(t, "4217_photo.jpg", rows[0].ImageName)

	doc.Metadata.ImagePath = `data\raw\media\tikvahpharma\4217_photo.jpg`
	rows = FlattenDetections(doc, source)
	assert.Equal(t, "4217_photo.jpg", rows[0].ImageName)

	// Documents predating the metadata block fall back to the file stem
	doc.Metadata.ImagePath = ""
	rows = FlattenDetections(doc, source)
	assert.Equal(t, "4217_photo_detections", rows[0].ImageName)
}

func TestConfidenceLevelBuckets(t *testing.T) {
	t.Parallel()

	source := &datastore.RawImageDetection{FileName: "1_a.json"}
	rows := FlattenDetections(sampleDoc(), source)
	require.Len(t, rows, 3)

	// 0.82 / 0.60 / 0.30
	assert.Equal(t, "high", rows[0].ConfidenceLevel)
	assert.Equal(t, "medium", rows[1].ConfidenceLevel)
	assert.Equal(t, "low", rows[2].ConfidenceLevel)

	assert.Equal(t, "high", confidenceLevel(0.8))
	assert.Equal(t, "medium", confidenceLevel(0.5))
	assert.Equal(t, "low", confidenceLevel(0.499))
}

func TestRelativeAreaGuardsDegenerateBoxes(t *testing.T) {
	t.Parallel()

	// Zero-width box from the sample's third detection
	source := &datastore.RawImageDetection{FileName: "x.json"}
	rows := FlattenDetections(sampleDoc(), source)
	assert.Zero(t, rows[2].RelativeAreaPercentage)

	assert.Zero(t, relativeAreaPercentage(100, 0, 50))
	assert.Zero(t, relativeAreaPercentage(100, 50, 0))
	assert.Zero(t, relativeAreaPercentage(100, -10, 50))
	assert.InDelta(t, 50.0, relativeAreaPercentage(50, 10, 10), 0.001)
}

func TestLeadingMessageID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		image string
		want  int64
		nil_  bool
	}{
		{"plain id", "4217_photo", 4217, false},
		{"id only", "99", 99, false},
		{"no leading digits", "photo_4217", 0, true},
		{"empty", "", 0, true},
		{"digits after prefix", "img42", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := leadingMessageID(tt.image)
			if tt.nil_ {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestRebuildFromRawStore(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	require.NoError(t, store.InsertRawDetection(&datastore.RawImageDetection{
		FilePath: "detections/4217_photo.json",
		FileName: "4217_photo.json",
		Payload: `{
			"detections": [
				{"class_name": "bottle", "confidence": 0.9, "bbox": {"x1": 0, "y1": 0, "x2": 10, "y2": 10}, "area": 50, "is_medical_related": true}
			],
			"analysis": {"total_objects": 1, "medical_objects": 1},
			"metadata": {"model_used": "yolov8n", "confidence_threshold": 0.25}
		}`,
	}))
	require.NoError(t, store.InsertRawDetection(&datastore.RawImageDetection{
		FilePath: "detections/photo_no_id.json",
		FileName: "photo_no_id.json",
		Payload:  `{"detections": [{"class_name": "person", "confidence": 0.4, "bbox": {"x1": 0, "y1": 0, "x2": 5, "y2": 5}, "area": 10}]}`,
	}))
	require.NoError(t, store.InsertRawDetection(&datastore.RawImageDetection{
		FilePath: "detections/broken.json",
		FileName: "broken.json",
		Payload:  `{broken`,
	}))

	stats, err := NewDetectionBuilder(store, nil).Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.MalformedDocs)
	assert.Equal(t, 1, stats.UnlinkedDetections)

	records, err := store.SearchDetectionRecords(datastore.DetectionFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ordered by confidence descending
	require.NotNil(t, records[0].MessageID)
	assert.Equal(t, int64(4217), *records[0].MessageID)
	assert.Nil(t, records[1].MessageID)
}
