// detections.go: loads image detection documents into the append-only raw store
package ingest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/errors"
)

// channelFromPath extracts the channel name from an image or detection path.
// Downloaded media lives under a per-channel directory, so the segment right
// after "media" names the channel. Returns nil when the layout does not match.
func channelFromPath(path string) *string {
	// Detection documents may record paths with either separator
	normalized := strings.ReplaceAll(filepath.ToSlash(path), `\`, "/")
	segments := strings.Split(normalized, "/")
	for i, segment := range segments {
		if segment == "media" && i+1 < len(segments) {
			channel := segments[i+1]
			// The last segment is the file itself, not a channel directory
			if i+1 == len(segments)-1 || channel == "" {
				return nil
			}
			return &channel
		}
	}
	return nil
}

// IngestDetectionFile loads a single detection document, returning the channel
// it resolved. Semantics mirror IngestFile: malformed documents error out
// per-file, duplicates are skipped, type-mismatched fields null out.
//
// The channel comes from the processed image's path in metadata.image_path,
// since detection JSONs live in their own directory away from the per-channel
// media tree. The document's own path is only a fallback.
func (l *Loader) IngestDetectionFile(path string) (loaded bool, channel *string, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, nil, errors.New(fmt.Errorf("reading detection document: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	var doc DetectionDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		if !IsCastError(err) {
			return false, nil, errors.New(fmt.Errorf("parsing detection document: %w", err)).
				Component("ingest").
				Category(errors.CategoryIngestion).
				Context("path", path).
				Build()
		}
		l.log.Warn("Detection document has uncastable fields, loading with nulls",
			"path", path,
			"error", err)
	}

	channel = channelFromPath(doc.Metadata.ImagePath)
	if channel == nil {
		channel = channelFromPath(path)
	}

	exists, err := l.store.HasRawDetection(path)
	if err != nil {
		return false, nil, errors.New(fmt.Errorf("checking for existing detection: %w", err)).
			Component("ingest").
			Category(errors.CategoryConnectivity).
			Priority(errors.PriorityCritical).
			Context("path", path).
			Build()
	}
	if exists {
		l.log.Debug("Skipping already loaded detection document", "path", path)
		return false, channel, nil
	}

	det := &datastore.RawImageDetection{
		FilePath:    path,
		FileName:    filepath.Base(path),
		ChannelName: channel,
		Payload:     string(content),
	}
	if err := l.store.InsertRawDetection(det); err != nil {
		return false, nil, err
	}

	l.log.Debug("Loaded detection document",
		"path", path,
		"objects", len(doc.Detections))
	return true, channel, nil
}

// IngestDetectionDir walks a directory tree and loads every .json detection
// document, with the same per-file error isolation as IngestDir.
func (l *Loader) IngestDetectionDir(root string) (Stats, error) {
	stats := Stats{PerChannel: make(map[string]int)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}

		loaded, channel, err := l.IngestDetectionFile(path)
		switch {
		case err == nil && loaded:
			stats.Loaded++
			if channel != nil {
				stats.PerChannel[*channel]++
			}
			l.metrics.RecordLoaded("detections", 1)
		case err == nil:
			stats.SkippedDuplicate++
			l.metrics.RecordSkipped("detections", 1)
		case errors.IsConnectivity(err):
			return err
		default:
			stats.Failed++
			l.metrics.RecordFailed("detections", 1)
			l.log.Error("Failed to ingest detection document",
				"path", path,
				"error", err)
		}
		return nil
	})
	if err != nil {
		return stats, errors.New(fmt.Errorf("ingesting detection documents: %w", err)).
			Component("ingest").
			Context("root", root).
			Build()
	}

	l.log.Info("Detection ingestion finished",
		"root", root,
		"loaded", stats.Loaded,
		"skipped", stats.SkippedDuplicate,
		"failed", stats.Failed)
	return stats, nil
}
