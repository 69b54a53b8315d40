package facts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/datastore"
)

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&datastore.RawImageDetection{},
		&datastore.StagingMessage{},
		&datastore.ChannelProfile{},
		&datastore.CalendarDay{},
		&datastore.MessageFact{},
		&datastore.DetectionRecord{},
	))

	return &datastore.SQLiteStore{DataStore: datastore.DataStore{DB: db}}
}

func testSettings() *conf.Settings {
	return &conf.Settings{
		Warehouse: conf.WarehouseSettings{
			LongMessageChars:   100,
			MediumMessageChars: 50,
		},
	}
}

func TestRebuildJoinsDimensions(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	msgDate := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.ReplaceChannelProfiles([]datastore.ChannelProfile{
		{ChannelName: "tikvahpharma"},
	}))
	require.NoError(t, store.ReplaceCalendarDays([]datastore.CalendarDay{
		{Date: "2025-03-10"},
	}))
	require.NoError(t, store.ReplaceStagingMessages([]datastore.StagingMessage{
		{MessageID: 1, ChannelName: "tikvahpharma", MessageDate: &msgDate, HasText: true, MessageLength: 10},
	}))

	stats, err := NewAssembler(store, testSettings(), nil).Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, 0, stats.ChannelJoinMisses)
	assert.Equal(t, 0, stats.DateJoinMisses)

	facts, err := store.SearchMessageFacts(datastore.MessageFactFilter{})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.NotNil(t, facts[0].ChannelKey)
	assert.NotNil(t, facts[0].DateKey)
}

func TestRebuildJoinMissesStayNull(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	// No dimension rows at all, and one message without a date
	noDate := datastore.StagingMessage{MessageID: 2, ChannelName: "ghost"}
	dated := datastore.StagingMessage{MessageID: 1, ChannelName: "ghost"}
	d := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	dated.MessageDate = &d
	require.NoError(t, store.ReplaceStagingMessages([]datastore.StagingMessage{dated, noDate}))

	stats, err := NewAssembler(store, testSettings(), nil).Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 2, stats.ChannelJoinMisses)
	assert.Equal(t, 2, stats.DateJoinMisses)

	facts, err := store.SearchMessageFacts(datastore.MessageFactFilter{})
	require.NoError(t, err)
	require.Len(t, facts, 2)
	for _, f := range facts {
		assert.Nil(t, f.ChannelKey)
		assert.Nil(t, f.DateKey)
	}
}

func TestMessageLengthCategory(t *testing.T) {
	t.Parallel()
	cfg := &testSettings().Warehouse

	tests := []struct {
		length int
		want   string
	}{
		{150, "long"},
		{101, "long"},
		{100, "medium"},
		{51, "medium"},
		{50, "short"},
		{0, "short"},
	}

	for _, tt := range tests {
		fact := assembleFact(&datastore.StagingMessage{MessageLength: tt.length}, cfg)
		assert.Equal(t, tt.want, fact.MessageLengthCategory, "length %d", tt.length)
	}
}

func TestMessageTypeDerivation(t *testing.T) {
	t.Parallel()
	cfg := &testSettings().Warehouse

	tests := []struct {
		medical bool
		price   bool
		want    string
	}{
		{true, true, "medical_commerce"},
		{true, false, "medical_info"},
		{false, true, "commerce"},
		{false, false, "general"},
	}

	for _, tt := range tests {
		fact := assembleFact(&datastore.StagingMessage{
			ContainsMedicalKeywords: tt.medical,
			ContainsPriceInfo:       tt.price,
		}, cfg)
		assert.Equal(t, tt.want, fact.MessageType)
	}
}

func TestContentTypeBuckets(t *testing.T) {
	t.Parallel()
	cfg := &testSettings().Warehouse

	tests := []struct {
		media   bool
		medical bool
		want    string
	}{
		{true, true, "medical_media"},
		{true, false, "media_only"},
		{false, true, "medical_text"},
		{false, false, "text_only"},
	}

	for _, tt := range tests {
		fact := assembleFact(&datastore.StagingMessage{
			HasMedia:                tt.media,
			ContainsMedicalKeywords: tt.medical,
		}, cfg)
		assert.Equal(t, tt.want, fact.ContentType)
	}
}

func TestEngagementPlaceholders(t *testing.T) {
	t.Parallel()

	fact := assembleFact(&datastore.StagingMessage{MessageID: 1}, &testSettings().Warehouse)
	assert.Zero(t, fact.ViewCount)
	assert.Zero(t, fact.ForwardCount)
	assert.Zero(t, fact.ReplyCount)
	assert.False(t, fact.HasEngagement)
}
