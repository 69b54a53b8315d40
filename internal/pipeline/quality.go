// quality.go: named data-quality checks over the rebuilt warehouse tables.
// A failed check is a reported result, not a runtime error, so partial
// pipeline health stays visible.
package pipeline

import (
	"fmt"
	"time"

	"github.com/yosefw/medlake-go/internal/datastore"
)

// joinMissRateThreshold is the fraction of message facts allowed to miss the
// channel dimension before the join check fails.
const joinMissRateThreshold = 0.10

// CheckResult is the outcome of one named data-quality check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunQualityChecks evaluates every data-quality rule against the current
// warehouse state. Only store access failures return an error.
func RunQualityChecks(store datastore.Interface) ([]CheckResult, error) {
	var results []CheckResult

	staging, err := store.GetAllStagingMessages()
	if err != nil {
		return nil, fmt.Errorf("quality checks: %w", err)
	}
	results = append(results, checkStagingUniqueness(staging))

	days, err := store.GetCalendarDays("", "")
	if err != nil {
		return nil, fmt.Errorf("quality checks: %w", err)
	}
	results = append(results, checkCalendarContiguity(days))

	facts, err := store.SearchMessageFacts(datastore.MessageFactFilter{})
	if err != nil {
		return nil, fmt.Errorf("quality checks: %w", err)
	}
	results = append(results,
		checkChannelJoinMissRate(facts),
		checkClassificationConsistency(facts))

	detections, err := store.SearchDetectionRecords(datastore.DetectionFilter{})
	if err != nil {
		return nil, fmt.Errorf("quality checks: %w", err)
	}
	results = append(results, checkDetectionLinkage(detections))

	return results, nil
}

// checkStagingUniqueness verifies one row per (message_id, channel_name).
func checkStagingUniqueness(rows []datastore.StagingMessage) CheckResult {
	type key struct {
		id      int64
		channel string
	}
	seen := make(map[key]bool, len(rows))
	duplicates := 0
	for i := range rows {
		k := key{id: rows[i].MessageID, channel: rows[i].ChannelName}
		if seen[k] {
			duplicates++
		}
		seen[k] = true
	}
	return CheckResult{
		Name:   "staging_message_uniqueness",
		Passed: duplicates == 0,
		Detail: fmt.Sprintf("%d rows, %d duplicate (message_id, channel_name) pairs", len(rows), duplicates),
	}
}

// checkCalendarContiguity verifies the date spine has no gaps or repeats.
func checkCalendarContiguity(days []datastore.CalendarDay) CheckResult {
	if len(days) == 0 {
		return CheckResult{
			Name:   "calendar_contiguity",
			Passed: false,
			Detail: "calendar table is empty",
		}
	}

	gaps := 0
	prev, err := time.Parse("2006-01-02", days[0].Date)
	if err != nil {
		return CheckResult{
			Name:   "calendar_contiguity",
			Passed: false,
			Detail: fmt.Sprintf("unparseable date %q", days[0].Date),
		}
	}
	for _, d := range days[1:] {
		cur, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return CheckResult{
				Name:   "calendar_contiguity",
				Passed: false,
				Detail: fmt.Sprintf("unparseable date %q", d.Date),
			}
		}
		if !cur.Equal(prev.AddDate(0, 0, 1)) {
			gaps++
		}
		prev = cur
	}
	return CheckResult{
		Name:   "calendar_contiguity",
		Passed: gaps == 0,
		Detail: fmt.Sprintf("%d days from %s through %s, %d gaps", len(days), days[0].Date, days[len(days)-1].Date, gaps),
	}
}

// checkChannelJoinMissRate verifies message facts mostly resolve their channel
// dimension. Misses are a valid null-path; a high rate signals a broken join.
func checkChannelJoinMissRate(facts []datastore.MessageFact) CheckResult {
	if len(facts) == 0 {
		return CheckResult{
			Name:   "channel_join_miss_rate",
			Passed: true,
			Detail: "no message facts",
		}
	}
	misses := 0
	for i := range facts {
		if facts[i].ChannelKey == nil {
			misses++
		}
	}
	rate := float64(misses) / float64(len(facts))
	return CheckResult{
		Name:   "channel_join_miss_rate",
		Passed: rate <= joinMissRateThreshold,
		Detail: fmt.Sprintf("%d of %d facts unjoined (%.2f%%)", misses, len(facts), rate*100),
	}
}

// checkClassificationConsistency verifies the derived categorical fields
// agree with the boolean flags they are defined over.
func checkClassificationConsistency(facts []datastore.MessageFact) CheckResult {
	inconsistent := 0
	for i := range facts {
		f := &facts[i]

		wantType := "general"
		switch {
		case f.ContainsMedicalKeywords && f.ContainsPriceInfo:
			wantType = "medical_commerce"
		case f.ContainsMedicalKeywords:
			wantType = "medical_info"
		case f.ContainsPriceInfo:
			wantType = "commerce"
		}

		wantContent := "text_only"
		switch {
		case f.HasMedia && f.ContainsMedicalKeywords:
			wantContent = "medical_media"
		case f.HasMedia:
			wantContent = "media_only"
		case f.ContainsMedicalKeywords:
			wantContent = "medical_text"
		}

		if f.MessageType != wantType || f.ContentType != wantContent {
			inconsistent++
		}
	}
	return CheckResult{
		Name:   "classification_consistency",
		Passed: inconsistent == 0,
		Detail: fmt.Sprintf("%d of %d facts with inconsistent derived fields", inconsistent, len(facts)),
	}
}

// checkDetectionLinkage reports how many detection rows carry a message link.
// The link is a filename heuristic, so unlinked rows never fail the check.
func checkDetectionLinkage(records []datastore.DetectionRecord) CheckResult {
	linked := 0
	for i := range records {
		if records[i].MessageID != nil {
			linked++
		}
	}
	return CheckResult{
		Name:   "detection_message_linkage",
		Passed: true,
		Detail: fmt.Sprintf("%d of %d detections linked to a message", linked, len(records)),
	}
}
