// Package dimension builds the channel and date dimension tables.
package dimension

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/errors"
	"github.com/yosefw/medlake-go/internal/logging"
	"github.com/yosefw/medlake-go/internal/observability"
)

// ChannelBuilder recomputes the channel dimension from the staging table.
type ChannelBuilder struct {
	store    datastore.Interface
	settings *conf.Settings
	metrics  *observability.Metrics
	log      *slog.Logger
}

// NewChannelBuilder creates a ChannelBuilder. metrics may be nil.
func NewChannelBuilder(store datastore.Interface, settings *conf.Settings, metrics *observability.Metrics) *ChannelBuilder {
	return &ChannelBuilder{
		store:    store,
		settings: settings,
		metrics:  metrics,
		log:      logging.ForService("dimension"),
	}
}

// Rebuild aggregates staging messages per channel, classifies each channel,
// and swaps the dimension table in one transaction. Returns the row count.
func (b *ChannelBuilder) Rebuild() (int, error) {
	start := time.Now()

	messages, err := b.store.GetAllStagingMessages()
	if err != nil {
		return 0, errors.New(fmt.Errorf("reading staging messages: %w", err)).
			Component("dimension").
			Category(errors.CategoryDatabase).
			Build()
	}

	profiles := BuildChannelProfiles(messages, &b.settings.Warehouse)

	if err := b.store.ReplaceChannelProfiles(profiles); err != nil {
		return 0, errors.New(fmt.Errorf("replacing channel profiles: %w", err)).
			Component("dimension").
			Category(errors.CategoryDatabase).
			Build()
	}

	b.metrics.RecordTableRows("channel_profiles", len(profiles))
	b.metrics.RecordPassDuration("channel_dimension", time.Since(start).Seconds())
	b.log.Info("Channel dimension rebuilt",
		"channels", len(profiles),
		"duration", time.Since(start))
	return len(profiles), nil
}

// BuildChannelProfiles aggregates and classifies channels from normalized
// messages. Pure function, exported for direct testing.
func BuildChannelProfiles(messages []datastore.StagingMessage, cfg *conf.WarehouseSettings) []datastore.ChannelProfile {
	type accumulator struct {
		profile     datastore.ChannelProfile
		totalLength int
		senders     map[int64]struct{}
	}

	byChannel := make(map[string]*accumulator)
	for i := range messages {
		msg := &messages[i]
		acc := byChannel[msg.ChannelName]
		if acc == nil {
			acc = &accumulator{
				profile: datastore.ChannelProfile{ChannelName: msg.ChannelName},
				senders: make(map[int64]struct{}),
			}
			byChannel[msg.ChannelName] = acc
		}

		p := &acc.profile
		p.MessageCount++
		if msg.HasMedia {
			p.MediaCount++
		}
		if msg.ContainsMedicalKeywords {
			p.MedicalMessageCount++
		}
		if msg.ContainsPriceInfo {
			p.PriceMessageCount++
		}
		acc.totalLength += msg.MessageLength
		if msg.SenderID != nil {
			acc.senders[*msg.SenderID] = struct{}{}
		}
		if msg.MessageDate != nil {
			if p.FirstMessageDate == nil || msg.MessageDate.Before(*p.FirstMessageDate) {
				p.FirstMessageDate = msg.MessageDate
			}
			if p.LastMessageDate == nil || msg.MessageDate.After(*p.LastMessageDate) {
				p.LastMessageDate = msg.MessageDate
			}
		}
	}

	profiles := make([]datastore.ChannelProfile, 0, len(byChannel))
	for _, acc := range byChannel {
		p := acc.profile
		p.DistinctSenders = len(acc.senders)
		if p.MessageCount > 0 {
			p.AvgMessageLength = round2(float64(acc.totalLength) / float64(p.MessageCount))
			p.MedicalContentPercentage = round2(float64(p.MedicalMessageCount) / float64(p.MessageCount) * 100)
			p.MediaPercentage = round2(float64(p.MediaCount) / float64(p.MessageCount) * 100)
			p.PricePercentage = round2(float64(p.PriceMessageCount) / float64(p.MessageCount) * 100)
		}
		classifyChannel(&p, cfg)
		profiles = append(profiles, p)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].ChannelName < profiles[j].ChannelName
	})
	return profiles
}

// classifyChannel assigns category, priority, activity_level and channel_type.
// Every rule table is evaluated in order with first match winning.
func classifyChannel(p *datastore.ChannelProfile, cfg *conf.WarehouseSettings) {
	p.Category = categorize(p.ChannelName)
	p.Priority = prioritize(p.ChannelName)

	switch {
	case p.MessageCount >= cfg.ActivityHigh:
		p.ActivityLevel = "high"
	case p.MessageCount >= cfg.ActivityMedium:
		p.ActivityLevel = "medium"
	default:
		p.ActivityLevel = "low"
	}

	medicalRatio := ratio(p.MedicalMessageCount, p.MessageCount)
	mediaRatio := ratio(p.MediaCount, p.MessageCount)
	priceRatio := ratio(p.PriceMessageCount, p.MessageCount)
	switch {
	case medicalRatio > cfg.MedicalRatio:
		p.ChannelType = "medical_focused"
	case mediaRatio > cfg.MediaRatio:
		p.ChannelType = "media_heavy"
	case priceRatio > cfg.PriceRatio:
		p.ChannelType = "commerce_focused"
	default:
		p.ChannelType = "general"
	}
}

func categorize(channelName string) string {
	lower := strings.ToLower(channelName)
	for _, rule := range conf.CategoryRules {
		for _, substr := range rule.Substrings {
			if strings.Contains(lower, substr) {
				return rule.Category
			}
		}
	}
	return conf.CategoryDefault
}

func prioritize(channelName string) string {
	switch {
	case slices.Contains(conf.HighPriorityChannels, channelName):
		return conf.PriorityHigh
	case slices.Contains(conf.MediumPriorityChannels, channelName):
		return conf.PriorityMedium
	default:
		return conf.PriorityLow
	}
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
