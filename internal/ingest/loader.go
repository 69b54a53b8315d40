// loader.go: loads scraped message documents into the append-only raw store
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/errors"
	"github.com/yosefw/medlake-go/internal/logging"
	"github.com/yosefw/medlake-go/internal/observability"
)

var scrapeDateDirPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Stats summarizes one ingestion pass over message or detection documents.
type Stats struct {
	Loaded           int
	SkippedDuplicate int
	Failed           int
	PerChannel       map[string]int
}

// Loader reads scraped JSON documents and appends them to the raw store.
// Duplicate (channel, file) pairs are skipped so re-running a load is safe.
type Loader struct {
	store   datastore.Interface
	metrics *observability.Metrics
	log     *slog.Logger
}

// NewLoader creates a Loader writing to the given store. metrics may be nil.
func NewLoader(store datastore.Interface, metrics *observability.Metrics) *Loader {
	return &Loader{
		store:   store,
		metrics: metrics,
		log:     logging.ForService("ingest"),
	}
}

// IngestFile loads a single message document, returning the channel name it
// resolved for the stored batch. A malformed document is reported as an error
// so the caller can count it and continue; a store connectivity failure is
// returned as-is and should abort the batch. A type-mismatched field is not
// malformed: the payload is stored verbatim and the field nulls out downstream.
func (l *Loader) IngestFile(path string) (loaded bool, channel string, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, "", errors.New(fmt.Errorf("reading message document: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	var doc MessageDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		if !IsCastError(err) {
			return false, "", errors.New(fmt.Errorf("parsing message document: %w", err)).
				Component("ingest").
				Category(errors.CategoryIngestion).
				Context("path", path).
				Build()
		}
		l.log.Warn("Message document has uncastable fields, loading with nulls",
			"path", path,
			"error", err)
	}

	channelName := doc.Metadata.ChannelName
	if channelName == "" {
		// Scraper writes one file per channel named after it
		channelName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if channelName == "" {
		return false, "", errors.Newf("message document has no channel name").
			Component("ingest").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}

	scrapeDate := doc.Metadata.ScrapeDate
	if scrapeDate == "" {
		// Scrape layout is <root>/<YYYY-MM-DD>/<channel>.json
		parent := filepath.Base(filepath.Dir(path))
		if scrapeDateDirPattern.MatchString(parent) {
			scrapeDate = parent
		}
	}

	exists, err := l.store.HasRawBatch(channelName, path)
	if err != nil {
		return false, "", errors.New(fmt.Errorf("checking for existing batch: %w", err)).
			Component("ingest").
			Category(errors.CategoryConnectivity).
			Priority(errors.PriorityCritical).
			Context("path", path).
			Build()
	}
	if exists {
		l.log.Debug("Skipping already loaded document",
			"channel", channelName,
			"path", path)
		return false, channelName, nil
	}

	batch := &datastore.RawMessageBatch{
		ChannelName: channelName,
		FilePath:    path,
		ScrapeDate:  scrapeDate,
		ContentHash: contentIdentity(path, content),
		Payload:     string(content),
	}
	if err := l.store.InsertRawBatch(batch); err != nil {
		return false, "", err
	}

	l.log.Debug("Loaded message document",
		"channel", channelName,
		"scrape_date", scrapeDate,
		"messages", len(doc.Messages))
	return true, channelName, nil
}

// IngestDir walks a directory tree and loads every .json message document.
// One malformed file is logged and skipped; the rest of the batch proceeds.
// A connectivity failure to the store aborts the walk.
func (l *Loader) IngestDir(root string) (Stats, error) {
	stats := Stats{PerChannel: make(map[string]int)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}

		loaded, channel, err := l.IngestFile(path)
		switch {
		case err == nil && loaded:
			stats.Loaded++
			stats.PerChannel[channel]++
			l.metrics.RecordLoaded("messages", 1)
		case err == nil:
			stats.SkippedDuplicate++
			l.metrics.RecordSkipped("messages", 1)
		case errors.IsConnectivity(err):
			return err
		default:
			stats.Failed++
			l.metrics.RecordFailed("messages", 1)
			l.log.Error("Failed to ingest message document",
				"path", path,
				"error", err)
		}
		return nil
	})
	if err != nil {
		return stats, errors.New(fmt.Errorf("ingesting message documents: %w", err)).
			Component("ingest").
			Context("root", root).
			Build()
	}

	l.log.Info("Message ingestion finished",
		"root", root,
		"loaded", stats.Loaded,
		"skipped", stats.SkippedDuplicate,
		"failed", stats.Failed)
	return stats, nil
}

// contentIdentity derives a stable identity for a document from its path and
// bytes, used to recognize content drift between loads of the same file.
func contentIdentity(path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
