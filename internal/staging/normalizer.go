// normalizer.go: flattens raw message documents into the staging table
package staging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/errors"
	"github.com/yosefw/medlake-go/internal/ingest"
	"github.com/yosefw/medlake-go/internal/logging"
	"github.com/yosefw/medlake-go/internal/observability"
)

// messageDateLayouts are tried in order when casting the scraper's date field.
var messageDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RebuildStats summarizes one staging rebuild.
type RebuildStats struct {
	Rows                int
	MalformedBatches    int
	CastNullBatches     int
	DroppedNullID       int
	DuplicatesCollapsed int
}

// Normalizer recomputes the staging table from the raw store. The table is
// rebuilt wholesale each run, never incrementally mutated.
type Normalizer struct {
	store   datastore.Interface
	metrics *observability.Metrics
	log     *slog.Logger
}

// NewNormalizer creates a Normalizer over the given store. metrics may be nil.
func NewNormalizer(store datastore.Interface, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{
		store:   store,
		metrics: metrics,
		log:     logging.ForService("staging"),
	}
}

type stagingKey struct {
	messageID   int64
	channelName string
}

// Rebuild flattens every raw batch into normalized rows, collapses duplicates
// keeping the most recently loaded row per (message_id, channel_name), and
// swaps the staging table in one transaction.
func (n *Normalizer) Rebuild() (RebuildStats, error) {
	start := time.Now()
	var stats RebuildStats

	batches, err := n.store.GetAllRawBatches()
	if err != nil {
		return stats, errors.New(fmt.Errorf("reading raw batches: %w", err)).
			Component("staging").
			Category(errors.CategoryDatabase).
			Build()
	}

	// Batches arrive ordered by loaded_at, so a later batch overwrites an
	// earlier one for the same key. Within a batch the last occurrence wins.
	rows := make(map[stagingKey]datastore.StagingMessage)
	for i := range batches {
		batch := &batches[i]

		var doc ingest.MessageDocument
		if err := json.Unmarshal([]byte(batch.Payload), &doc); err != nil {
			// A field-level type mismatch leaves the field null and the
			// rest of the batch decoded; only a broken document is skipped.
			if !ingest.IsCastError(err) {
				stats.MalformedBatches++
				n.log.Error("Skipping malformed raw batch",
					"channel", batch.ChannelName,
					"file_path", batch.FilePath,
					"error", err)
				continue
			}
			stats.CastNullBatches++
			n.log.Warn("Raw batch has uncastable fields, keeping rows with nulls",
				"channel", batch.ChannelName,
				"file_path", batch.FilePath,
				"error", err)
		}

		for i := range doc.Messages {
			msg := &doc.Messages[i]
			if msg.ID == 0 {
				stats.DroppedNullID++
				continue
			}

			key := stagingKey{messageID: msg.ID, channelName: batch.ChannelName}
			if _, seen := rows[key]; seen {
				stats.DuplicatesCollapsed++
			}
			rows[key] = normalizeMessage(msg, batch)
		}
	}

	out := make([]datastore.StagingMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	// Deterministic output order across runs
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChannelName != out[j].ChannelName {
			return out[i].ChannelName < out[j].ChannelName
		}
		return out[i].MessageID < out[j].MessageID
	})

	if err := n.store.ReplaceStagingMessages(out); err != nil {
		return stats, errors.New(fmt.Errorf("replacing staging table: %w", err)).
			Component("staging").
			Category(errors.CategoryDatabase).
			Build()
	}

	stats.Rows = len(out)
	n.metrics.RecordTableRows("staging_messages", stats.Rows)
	n.metrics.RecordPassDuration("staging", time.Since(start).Seconds())
	n.log.Info("Staging rebuild finished",
		"rows", stats.Rows,
		"malformed_batches", stats.MalformedBatches,
		"cast_null_batches", stats.CastNullBatches,
		"dropped_null_id", stats.DroppedNullID,
		"duplicates_collapsed", stats.DuplicatesCollapsed,
		"duration", time.Since(start))
	return stats, nil
}

// normalizeMessage flattens one raw message into a staging row. Uncastable
// optional fields stay null rather than defaulting.
func normalizeMessage(msg *ingest.RawMessage, batch *datastore.RawMessageBatch) datastore.StagingMessage {
	row := datastore.StagingMessage{
		MessageID:   msg.ID,
		ChannelName: batch.ChannelName,
		ChannelID:   msg.ChannelID,
		SenderID:    msg.SenderID,
		MessageDate: parseMessageDate(msg.Date),
		LoadedAt:    batch.LoadedAt,
	}

	if msg.Text != nil {
		// Trimmed but not case-folded; classification lowercases transiently
		row.MessageText = strings.TrimSpace(*msg.Text)
	}

	if msg.SenderInfo != nil {
		if row.SenderID == nil {
			row.SenderID = msg.SenderInfo.ID
		}
		row.SenderUsername = msg.SenderInfo.Username
		row.SenderFirstName = msg.SenderInfo.FirstName
		row.SenderLastName = msg.SenderInfo.LastName
	}

	if msg.Media != nil {
		row.MediaType = msg.Media.Type
		row.MediaFileID = msg.Media.FileID
		row.MediaFileSize = msg.Media.FileSize
		row.MediaMimeType = msg.Media.MimeType
	}
	row.LocalMediaPath = msg.LocalMediaPath

	row.HasText = row.MessageText != ""
	row.HasMedia = msg.Media != nil || msg.LocalMediaPath != nil
	row.MessageLength = MessageLength(row.MessageText)
	row.ContainsMedicalKeywords = ContainsMedicalKeywords(row.MessageText)
	row.ContainsPriceInfo = ContainsPriceInfo(row.MessageText)

	return row
}

// parseMessageDate casts the scraper's date string, trying known layouts.
// Returns nil when the field is absent or not parseable.
func parseMessageDate(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range messageDateLayouts {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t
		}
	}
	return nil
}
