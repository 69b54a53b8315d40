// analytics.go: read-surface queries over the warehouse tables for reporting
package datastore

import (
	"fmt"
	"strings"
)

// MessageFactFilter narrows a message fact search. Zero values mean "no filter".
type MessageFactFilter struct {
	ChannelName     string
	MessageType     string
	ContentType     string
	Date            string // calendar day in YYYY-MM-DD form
	MedicalOnly     bool
	PriceOnly       bool
	UnjoinedChannel bool // only facts whose channel dimension lookup missed
	Limit           int
	Offset          int
}

// DetectionFilter narrows a detection record search. Zero values mean "no filter".
type DetectionFilter struct {
	ChannelName     string
	DetectedClass   string
	ObjectCategory  string
	ConfidenceLevel string
	MinConfidence   float64
	Limit           int
	Offset          int
}

// TableCounts reports per-table row counts, used by quality checks and status output.
type TableCounts struct {
	RawMessageBatches int64 `json:"raw_message_batches"`
	RawDetections     int64 `json:"raw_detections"`
	StagingMessages   int64 `json:"staging_messages"`
	ChannelProfiles   int64 `json:"channel_profiles"`
	CalendarDays      int64 `json:"calendar_days"`
	MessageFacts      int64 `json:"message_facts"`
	DetectionRecords  int64 `json:"detection_records"`
}

// DailyActivity is one day of message volume for a channel.
type DailyActivity struct {
	Date         string `json:"date"`
	MessageCount int64  `json:"message_count"`
}

// GetChannelProfiles retrieves all channel profiles ordered by message volume.
func (ds *DataStore) GetChannelProfiles() ([]ChannelProfile, error) {
	var profiles []ChannelProfile
	if err := ds.DB.Order("message_count DESC, channel_name ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("getting channel profiles: %w", err)
	}
	return profiles, nil
}

// GetChannelProfile retrieves the profile for a single channel by name.
func (ds *DataStore) GetChannelProfile(channelName string) (ChannelProfile, error) {
	var profile ChannelProfile
	err := ds.DB.Where("channel_name = ?", channelName).First(&profile).Error
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("getting channel profile for %s: %w", channelName, err)
	}
	return profile, nil
}

// GetCalendarDays retrieves calendar rows in [from, to], inclusive on both
// ends. Empty bounds leave that side open.
func (ds *DataStore) GetCalendarDays(from, to string) ([]CalendarDay, error) {
	query := ds.DB.Model(&CalendarDay{})
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}

	var days []CalendarDay
	if err := query.Order("date ASC").Find(&days).Error; err != nil {
		return nil, fmt.Errorf("getting calendar days: %w", err)
	}
	return days, nil
}

// SearchMessageFacts retrieves message facts matching the filter, newest first.
func (ds *DataStore) SearchMessageFacts(filter MessageFactFilter) ([]MessageFact, error) {
	query := ds.DB.Model(&MessageFact{})

	if filter.ChannelName != "" {
		query = query.Where("channel_name = ?", filter.ChannelName)
	}
	if filter.MessageType != "" {
		query = query.Where("message_type = ?", filter.MessageType)
	}
	if filter.ContentType != "" {
		query = query.Where("content_type = ?", filter.ContentType)
	}
	if filter.Date != "" {
		query = query.Where("DATE(message_date) = ?", filter.Date)
	}
	if filter.MedicalOnly {
		query = query.Where("contains_medical_keywords = ?", true)
	}
	if filter.PriceOnly {
		query = query.Where("contains_price_info = ?", true)
	}
	if filter.UnjoinedChannel {
		query = query.Where("channel_key IS NULL")
	}

	query = query.Order("message_date DESC, message_id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var facts []MessageFact
	if err := query.Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("searching message facts: %w", err)
	}
	return facts, nil
}

// SearchDetectionRecords retrieves detection records matching the filter,
// highest confidence first.
func (ds *DataStore) SearchDetectionRecords(filter DetectionFilter) ([]DetectionRecord, error) {
	query := ds.DB.Model(&DetectionRecord{})

	if filter.ChannelName != "" {
		query = query.Where("channel_name = ?", filter.ChannelName)
	}
	if filter.DetectedClass != "" {
		// Class names come from the detection model, match case-insensitively
		query = query.Where("LOWER(class_name) = ?", strings.ToLower(filter.DetectedClass))
	}
	if filter.ObjectCategory != "" {
		query = query.Where("object_category = ?", filter.ObjectCategory)
	}
	if filter.ConfidenceLevel != "" {
		query = query.Where("confidence_level = ?", filter.ConfidenceLevel)
	}
	if filter.MinConfidence > 0 {
		query = query.Where("confidence >= ?", filter.MinConfidence)
	}

	query = query.Order("confidence DESC, id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var records []DetectionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("searching detection records: %w", err)
	}
	return records, nil
}

// GetTableCounts returns row counts for every warehouse table.
func (ds *DataStore) GetTableCounts() (TableCounts, error) {
	var counts TableCounts
	targets := []struct {
		model any
		dest  *int64
	}{
		{&RawMessageBatch{}, &counts.RawMessageBatches},
		{&RawImageDetection{}, &counts.RawDetections},
		{&StagingMessage{}, &counts.StagingMessages},
		{&ChannelProfile{}, &counts.ChannelProfiles},
		{&CalendarDay{}, &counts.CalendarDays},
		{&MessageFact{}, &counts.MessageFacts},
		{&DetectionRecord{}, &counts.DetectionRecords},
	}
	for _, t := range targets {
		if err := ds.DB.Model(t.model).Count(t.dest).Error; err != nil {
			return TableCounts{}, fmt.Errorf("counting rows: %w", err)
		}
	}
	return counts, nil
}

// GetChannelActivity returns per-day message counts for one channel, derived
// from the message fact table.
func (ds *DataStore) GetChannelActivity(channelName string) ([]DailyActivity, error) {
	var activity []DailyActivity
	err := ds.DB.Model(&MessageFact{}).
		Select("DATE(message_date) AS date, COUNT(*) AS message_count").
		Where("channel_name = ? AND message_date IS NOT NULL", channelName).
		Group("DATE(message_date)").
		Order("date ASC").
		Scan(&activity).Error
	if err != nil {
		return nil, fmt.Errorf("getting channel activity for %s: %w", channelName, err)
	}
	return activity, nil
}
