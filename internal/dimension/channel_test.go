package dimension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/datastore"
)

func warehouseDefaults() *conf.WarehouseSettings {
	return &conf.WarehouseSettings{
		CalendarStart:        "2024-01-01",
		FiscalYearStartMonth: 7,
		ActivityHigh:         100,
		ActivityMedium:       50,
		MedicalRatio:         0.7,
		MediaRatio:           0.5,
		PriceRatio:           0.3,
		LongMessageChars:     100,
		MediumMessageChars:   50,
	}
}

// makeMessages builds n staging rows for one channel, flagging the first
// medical of them as medical content
func makeMessages(channel string, n, medical int) []datastore.StagingMessage {
	msgs := make([]datastore.StagingMessage, n)
	for i := range msgs {
		msgs[i] = datastore.StagingMessage{
			MessageID:               int64(i + 1),
			ChannelName:             channel,
			ContainsMedicalKeywords: i < medical,
		}
	}
	return msgs
}

func TestHighVolumeMedicalChannelClassification(t *testing.T) {
	t.Parallel()

	// 120 messages, 90 medical-flagged
	profiles := BuildChannelProfiles(makeMessages("tikvahpharma", 120, 90), warehouseDefaults())
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, 120, p.MessageCount)
	assert.Equal(t, 90, p.MedicalMessageCount)
	assert.InDelta(t, 75.00, p.MedicalContentPercentage, 0.001)
	assert.Equal(t, "high", p.ActivityLevel)
	assert.Equal(t, "medical_focused", p.ChannelType)
	assert.Equal(t, "pharmaceuticals", p.Category)
	assert.Equal(t, conf.PriorityHigh, p.Priority)
}

func TestActivityLevelThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count int
		want  string
	}{
		{100, "high"},
		{99, "medium"},
		{50, "medium"},
		{49, "low"},
		{1, "low"},
	}

	for _, tt := range tests {
		profiles := BuildChannelProfiles(makeMessages("c", tt.count, 0), warehouseDefaults())
		require.Len(t, profiles, 1)
		assert.Equal(t, tt.want, profiles[0].ActivityLevel, "count %d", tt.count)
	}
}

func TestChannelTypeRatioRulesAreOrdered(t *testing.T) {
	t.Parallel()
	cfg := warehouseDefaults()

	// 10 messages, all medical, all media, all priced: medical rule wins first
	msgs := make([]datastore.StagingMessage, 10)
	for i := range msgs {
		msgs[i] = datastore.StagingMessage{
			MessageID:               int64(i + 1),
			ChannelName:             "c",
			HasMedia:                true,
			ContainsMedicalKeywords: true,
			ContainsPriceInfo:       true,
		}
	}
	profiles := BuildChannelProfiles(msgs, cfg)
	require.Len(t, profiles, 1)
	assert.Equal(t, "medical_focused", profiles[0].ChannelType)

	// Exactly at the medical threshold does not trigger it, media rule wins
	for i := range msgs {
		msgs[i].ContainsMedicalKeywords = i < 7
	}
	profiles = BuildChannelProfiles(msgs, cfg)
	assert.Equal(t, "media_heavy", profiles[0].ChannelType)

	// Only price ratio above its threshold
	for i := range msgs {
		msgs[i].ContainsMedicalKeywords = false
		msgs[i].HasMedia = false
		msgs[i].ContainsPriceInfo = i < 4
	}
	profiles = BuildChannelProfiles(msgs, cfg)
	assert.Equal(t, "commerce_focused", profiles[0].ChannelType)

	// Nothing above thresholds
	for i := range msgs {
		msgs[i].ContainsPriceInfo = false
	}
	profiles = BuildChannelProfiles(msgs, cfg)
	assert.Equal(t, "general", profiles[0].ChannelType)
}

func TestCategoryFromChannelNameSubstring(t *testing.T) {
	t.Parallel()

	tests := []struct {
		channel string
		want    string
	}{
		{"lobelia4cosmetics", "cosmetics"},
		{"tikvahpharma", "pharmaceuticals"},
		{"chemed_ethiopia", "medical_supplies"},
		{"healthcare_ethiopia", "healthcare"},
		{"random_channel", "general"},
	}

	for _, tt := range tests {
		profiles := BuildChannelProfiles(makeMessages(tt.channel, 1, 0), warehouseDefaults())
		require.Len(t, profiles, 1)
		assert.Equal(t, tt.want, profiles[0].Category, tt.channel)
	}
}

func TestPriorityAllowLists(t *testing.T) {
	t.Parallel()

	high := BuildChannelProfiles(makeMessages("chemed_ethiopia", 1, 0), warehouseDefaults())
	assert.Equal(t, conf.PriorityHigh, high[0].Priority)

	medium := BuildChannelProfiles(makeMessages("ethiopian_pharmacy", 1, 0), warehouseDefaults())
	assert.Equal(t, conf.PriorityMedium, medium[0].Priority)

	low := BuildChannelProfiles(makeMessages("unknown_channel", 1, 0), warehouseDefaults())
	assert.Equal(t, conf.PriorityLow, low[0].Priority)
}

func TestAggregatesAndDateBounds(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)
	sender1, sender2 := int64(1), int64(2)

	msgs := []datastore.StagingMessage{
		{MessageID: 1, ChannelName: "c", MessageLength: 10, SenderID: &sender1, MessageDate: &d2, HasMedia: true, ContainsPriceInfo: true},
		{MessageID: 2, ChannelName: "c", MessageLength: 20, SenderID: &sender2, MessageDate: &d1},
		{MessageID: 3, ChannelName: "c", MessageLength: 33, SenderID: &sender1},
	}
	profiles := BuildChannelProfiles(msgs, warehouseDefaults())
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, 3, p.MessageCount)
	assert.Equal(t, 1, p.MediaCount)
	assert.Equal(t, 1, p.PriceMessageCount)
	assert.Equal(t, 2, p.DistinctSenders)
	assert.InDelta(t, 21.0, p.AvgMessageLength, 0.001)
	assert.InDelta(t, 33.33, p.MediaPercentage, 0.001)
	require.NotNil(t, p.FirstMessageDate)
	require.NotNil(t, p.LastMessageDate)
	assert.True(t, p.FirstMessageDate.Equal(d1))
	assert.True(t, p.LastMessageDate.Equal(d2))
}

func TestEmptyInputYieldsNoProfiles(t *testing.T) {
	t.Parallel()

	profiles := BuildChannelProfiles(nil, warehouseDefaults())
	assert.Empty(t, profiles)
}

func TestProfilesSortedByChannelName(t *testing.T) {
	t.Parallel()

	msgs := append(makeMessages("zeta", 1, 0), makeMessages("alpha", 1, 0)...)
	profiles := BuildChannelProfiles(msgs, warehouseDefaults())
	require.Len(t, profiles, 2)
	assert.Equal(t, "alpha", profiles[0].ChannelName)
	assert.Equal(t, "zeta", profiles[1].ChannelName)
}
