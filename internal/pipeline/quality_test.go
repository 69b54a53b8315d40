package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yosefw/medlake-go/internal/datastore"
)

func int64Ptr(v int64) *int64 { return &v }
func uintPtr(v uint) *uint    { return &v }

func TestCheckStagingUniqueness(t *testing.T) {
	t.Parallel()

	ok := checkStagingUniqueness([]datastore.StagingMessage{
		{MessageID: 1, ChannelName: "a"},
		{MessageID: 1, ChannelName: "b"},
		{MessageID: 2, ChannelName: "a"},
	})
	assert.True(t, ok.Passed)

	dup := checkStagingUniqueness([]datastore.StagingMessage{
		{MessageID: 1, ChannelName: "a"},
		{MessageID: 1, ChannelName: "a"},
	})
	assert.False(t, dup.Passed)
	assert.Contains(t, dup.Detail, "1 duplicate")
}

func TestCheckCalendarContiguity(t *testing.T) {
	t.Parallel()

	contiguous := checkCalendarContiguity([]datastore.CalendarDay{
		{Date: "2025-01-30"},
		{Date: "2025-01-31"},
		{Date: "2025-02-01"},
	})
	assert.True(t, contiguous.Passed)

	gapped := checkCalendarContiguity([]datastore.CalendarDay{
		{Date: "2025-01-01"},
		{Date: "2025-01-03"},
	})
	assert.False(t, gapped.Passed)
	assert.Contains(t, gapped.Detail, "1 gaps")

	empty := checkCalendarContiguity(nil)
	assert.False(t, empty.Passed)
}

func TestCheckChannelJoinMissRate(t *testing.T) {
	t.Parallel()

	// 1 miss out of 20 is under the threshold
	facts := make([]datastore.MessageFact, 20)
	for i := range facts {
		facts[i].ChannelKey = uintPtr(1)
	}
	facts[0].ChannelKey = nil
	assert.True(t, checkChannelJoinMissRate(facts).Passed)

	// 5 of 20 is not
	for i := 0; i < 5; i++ {
		facts[i].ChannelKey = nil
	}
	assert.False(t, checkChannelJoinMissRate(facts).Passed)

	assert.True(t, checkChannelJoinMissRate(nil).Passed)
}

func TestCheckClassificationConsistency(t *testing.T) {
	t.Parallel()

	consistent := checkClassificationConsistency([]datastore.MessageFact{
		{ContainsMedicalKeywords: true, ContainsPriceInfo: true, MessageType: "medical_commerce", ContentType: "medical_text"},
		{HasMedia: true, MessageType: "general", ContentType: "media_only"},
	})
	assert.True(t, consistent.Passed)

	inconsistent := checkClassificationConsistency([]datastore.MessageFact{
		{ContainsMedicalKeywords: true, MessageType: "general", ContentType: "medical_text"},
	})
	assert.False(t, inconsistent.Passed)
}

func TestCheckDetectionLinkageNeverFails(t *testing.T) {
	t.Parallel()

	result := checkDetectionLinkage([]datastore.DetectionRecord{
		{MessageID: int64Ptr(42)},
		{MessageID: nil},
	})
	assert.True(t, result.Passed)
	assert.Contains(t, result.Detail, "1 of 2")
}
