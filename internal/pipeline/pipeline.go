// Package pipeline sequences the warehouse transformation passes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/dimension"
	"github.com/yosefw/medlake-go/internal/errors"
	"github.com/yosefw/medlake-go/internal/facts"
	"github.com/yosefw/medlake-go/internal/ingest"
	"github.com/yosefw/medlake-go/internal/logging"
	"github.com/yosefw/medlake-go/internal/observability"
	"github.com/yosefw/medlake-go/internal/staging"
)

// RunSummary aggregates the per-pass statistics of one pipeline run.
// Recoverable per-file and per-row problems show up here as counts; only
// connectivity or configuration failures abort a run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	MessageIngest   ingest.Stats         `json:"message_ingest"`
	DetectionIngest ingest.Stats         `json:"detection_ingest"`
	Staging         staging.RebuildStats `json:"staging"`
	ChannelProfiles int                  `json:"channel_profiles"`
	CalendarDays    int                  `json:"calendar_days"`
	MessageFacts    facts.AssembleStats  `json:"message_facts"`
	DetectionFacts  facts.DetectionStats `json:"detection_facts"`
	Checks          []CheckResult        `json:"checks"`
}

// Runner executes the raw-to-warehouse sequence: ingest, staging, dimensions,
// facts, then quality checks. Each transformation pass swaps its table
// atomically, so concurrent readers always see a complete table.
type Runner struct {
	store    datastore.Interface
	settings *conf.Settings
	metrics  *observability.Metrics
	log      *slog.Logger

	loader     *ingest.Loader
	normalizer *staging.Normalizer
	channels   *dimension.ChannelBuilder
	calendar   *dimension.CalendarGenerator
	assembler  *facts.Assembler
	detections *facts.DetectionBuilder
}

// NewRunner wires the transformation passes over one store. metrics may be nil.
func NewRunner(store datastore.Interface, settings *conf.Settings, metrics *observability.Metrics) *Runner {
	return &Runner{
		store:    store,
		settings: settings,
		metrics:  metrics,
		log:      logging.ForService("pipeline"),

		loader:     ingest.NewLoader(store, metrics),
		normalizer: staging.NewNormalizer(store, metrics),
		channels:   dimension.NewChannelBuilder(store, settings, metrics),
		calendar:   dimension.NewCalendarGenerator(store, settings, metrics),
		assembler:  facts.NewAssembler(store, settings, metrics),
		detections: facts.NewDetectionBuilder(store, metrics),
	}
}

type pass struct {
	name string
	run  func(summary *RunSummary) error
}

func (r *Runner) ingestPasses() []pass {
	return []pass{
		{"message_ingest", func(s *RunSummary) error {
			stats, err := r.loader.IngestDir(r.settings.Input.MessagesDir)
			s.MessageIngest = stats
			return err
		}},
		{"detection_ingest", func(s *RunSummary) error {
			stats, err := r.loader.IngestDetectionDir(r.settings.Input.DetectionsDir)
			s.DetectionIngest = stats
			return err
		}},
	}
}

func (r *Runner) transformPasses() []pass {
	return []pass{
		{"staging", func(s *RunSummary) error {
			stats, err := r.normalizer.Rebuild()
			s.Staging = stats
			return err
		}},
		{"channel_dimension", func(s *RunSummary) error {
			n, err := r.channels.Rebuild()
			s.ChannelProfiles = n
			return err
		}},
		{"calendar_dimension", func(s *RunSummary) error {
			n, err := r.calendar.Rebuild()
			s.CalendarDays = n
			return err
		}},
		{"message_facts", func(s *RunSummary) error {
			stats, err := r.assembler.Rebuild()
			s.MessageFacts = stats
			return err
		}},
		{"detection_facts", func(s *RunSummary) error {
			stats, err := r.detections.Rebuild()
			s.DetectionFacts = stats
			return err
		}},
		{"quality_checks", func(s *RunSummary) error {
			checks, err := RunQualityChecks(r.store)
			s.Checks = checks
			return err
		}},
	}
}

// Run executes ingestion followed by every transformation pass.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	return r.execute(ctx, append(r.ingestPasses(), r.transformPasses()...))
}

// Transform runs only the recomputation passes, skipping ingestion. Useful
// when new raw data has already been loaded separately.
func (r *Runner) Transform(ctx context.Context) (RunSummary, error) {
	return r.execute(ctx, r.transformPasses())
}

// execute runs the passes in order. A pass failure aborts the run; ctx is
// only consulted between passes since each pass commits or fails as a whole.
func (r *Runner) execute(ctx context.Context, passes []pass) (RunSummary, error) {
	summary := RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	log := r.log.With("run_id", summary.RunID)
	log.Info("Pipeline run starting", "passes", len(passes))

	var runErr error
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			runErr = errors.New(fmt.Errorf("run interrupted before %s: %w", p.name, err)).
				Component("pipeline").
				Category(errors.CategorySystem).
				Build()
			break
		}
		passStart := time.Now()
		if err := p.run(&summary); err != nil {
			runErr = fmt.Errorf("%s pass: %w", p.name, err)
			break
		}
		log.Debug("Pass completed",
			"pass", p.name,
			"duration", time.Since(passStart))
	}

	summary.FinishedAt = time.Now()
	duration := summary.FinishedAt.Sub(summary.StartedAt)
	if runErr != nil {
		r.metrics.RecordRun("failure")
		log.Error("Pipeline run failed",
			"duration", duration,
			"error", runErr)
		return summary, runErr
	}

	for _, check := range summary.Checks {
		if !check.Passed {
			log.Warn("Data-quality check failed",
				"check", check.Name,
				"detail", check.Detail)
		}
	}

	r.metrics.RecordRun("success")
	log.Info("Pipeline run finished",
		"duration", duration,
		"staging_rows", summary.Staging.Rows,
		"channel_profiles", summary.ChannelProfiles,
		"message_facts", summary.MessageFacts.Rows,
		"detection_facts", summary.DetectionFacts.Rows)
	return summary, nil
}
