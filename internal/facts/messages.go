// Package facts assembles the message and detection fact tables.
package facts

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/errors"
	"github.com/yosefw/medlake-go/internal/logging"
	"github.com/yosefw/medlake-go/internal/observability"
)

// AssembleStats summarizes one message fact rebuild. Join misses are valid
// null-paths surfaced for quality checks, not errors.
type AssembleStats struct {
	Rows              int
	ChannelJoinMisses int
	DateJoinMisses    int
}

// Assembler recomputes the message fact table by left-joining the staging
// table to the channel and date dimensions.
type Assembler struct {
	store    datastore.Interface
	settings *conf.Settings
	metrics  *observability.Metrics
	log      *slog.Logger
}

// NewAssembler creates an Assembler. metrics may be nil.
func NewAssembler(store datastore.Interface, settings *conf.Settings, metrics *observability.Metrics) *Assembler {
	return &Assembler{
		store:    store,
		settings: settings,
		metrics:  metrics,
		log:      logging.ForService("facts"),
	}
}

// Rebuild assembles one fact row per staging message and swaps the fact table
// in one transaction. Both dimension joins may miss; missing keys stay null.
func (a *Assembler) Rebuild() (AssembleStats, error) {
	start := time.Now()
	var stats AssembleStats

	messages, err := a.store.GetAllStagingMessages()
	if err != nil {
		return stats, readErr("staging messages", err)
	}
	profiles, err := a.store.GetChannelProfiles()
	if err != nil {
		return stats, readErr("channel profiles", err)
	}
	days, err := a.store.GetCalendarDays("", "")
	if err != nil {
		return stats, readErr("calendar days", err)
	}

	channelKeys := make(map[string]uint, len(profiles))
	for i := range profiles {
		channelKeys[profiles[i].ChannelName] = profiles[i].ID
	}
	dateKeys := make(map[string]uint, len(days))
	for i := range days {
		dateKeys[days[i].Date] = days[i].ID
	}

	cfg := &a.settings.Warehouse
	rows := make([]datastore.MessageFact, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		fact := assembleFact(msg, cfg)

		if key, ok := channelKeys[msg.ChannelName]; ok {
			fact.ChannelKey = &key
		} else {
			stats.ChannelJoinMisses++
		}
		if msg.MessageDate != nil {
			if key, ok := dateKeys[msg.MessageDate.Format("2006-01-02")]; ok {
				fact.DateKey = &key
			} else {
				stats.DateJoinMisses++
			}
		} else {
			stats.DateJoinMisses++
		}

		rows = append(rows, fact)
	}

	if err := a.store.ReplaceMessageFacts(rows); err != nil {
		return stats, errors.New(fmt.Errorf("replacing message facts: %w", err)).
			Component("facts").
			Category(errors.CategoryDatabase).
			Build()
	}

	stats.Rows = len(rows)
	a.metrics.RecordTableRows("message_facts", stats.Rows)
	a.metrics.RecordPassDuration("message_facts", time.Since(start).Seconds())
	a.log.Info("Message fact table rebuilt",
		"rows", stats.Rows,
		"channel_join_misses", stats.ChannelJoinMisses,
		"date_join_misses", stats.DateJoinMisses,
		"duration", time.Since(start))
	return stats, nil
}

// assembleFact derives the categorical fields for one staging message.
// Exported indirectly through Rebuild; kept separate for testing.
func assembleFact(msg *datastore.StagingMessage, cfg *conf.WarehouseSettings) datastore.MessageFact {
	fact := datastore.MessageFact{
		MessageID:               msg.MessageID,
		ChannelName:             msg.ChannelName,
		MessageDate:             msg.MessageDate,
		MessageLength:           msg.MessageLength,
		HasText:                 msg.HasText,
		HasMedia:                msg.HasMedia,
		ContainsMedicalKeywords: msg.ContainsMedicalKeywords,
		ContainsPriceInfo:       msg.ContainsPriceInfo,

		// Engagement counters are a labeled placeholder group; the scraper
		// does not populate views/forwards/replies yet.
		ViewCount:     0,
		ForwardCount:  0,
		ReplyCount:    0,
		HasEngagement: false,
	}

	switch {
	case msg.MessageLength > cfg.LongMessageChars:
		fact.MessageLengthCategory = "long"
	case msg.MessageLength > cfg.MediumMessageChars:
		fact.MessageLengthCategory = "medium"
	default:
		fact.MessageLengthCategory = "short"
	}

	switch {
	case msg.ContainsMedicalKeywords && msg.ContainsPriceInfo:
		fact.MessageType = "medical_commerce"
	case msg.ContainsMedicalKeywords:
		fact.MessageType = "medical_info"
	case msg.ContainsPriceInfo:
		fact.MessageType = "commerce"
	default:
		fact.MessageType = "general"
	}

	switch {
	case msg.HasMedia && msg.ContainsMedicalKeywords:
		fact.ContentType = "medical_media"
	case msg.HasMedia:
		fact.ContentType = "media_only"
	case msg.ContainsMedicalKeywords:
		fact.ContentType = "medical_text"
	default:
		fact.ContentType = "text_only"
	}

	return fact
}

func readErr(what string, err error) error {
	return errors.New(fmt.Errorf("reading %s: %w", what, err)).
		Component("facts").
		Category(errors.CategoryDatabase).
		Build()
}
