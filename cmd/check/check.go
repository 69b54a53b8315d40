package check

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/pipeline"
)

// Command creates the check command, which runs the data-quality checks
// against the current warehouse state without rebuilding anything.
func Command(settings *conf.Settings) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run data-quality checks against the warehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(settings, strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any check fails")

	return cmd
}

func runChecks(settings *conf.Settings, strict bool) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	counts, err := store.GetTableCounts()
	if err != nil {
		return err
	}
	fmt.Printf("raw batches:       %d\n", counts.RawMessageBatches)
	fmt.Printf("raw detections:    %d\n", counts.RawDetections)
	fmt.Printf("staging messages:  %d\n", counts.StagingMessages)
	fmt.Printf("channel profiles:  %d\n", counts.ChannelProfiles)
	fmt.Printf("calendar days:     %d\n", counts.CalendarDays)
	fmt.Printf("message facts:     %d\n", counts.MessageFacts)
	fmt.Printf("detection records: %d\n", counts.DetectionRecords)

	checks, err := pipeline.RunQualityChecks(store)
	if err != nil {
		return err
	}

	for _, check := range checks {
		status := "pass"
		if !check.Passed {
			status = "FAIL"
		}
		fmt.Printf("check %-30s %s  %s\n", check.Name, status, check.Detail)
	}
	return summarize(checks, strict)
}

// summarize turns check results into the command outcome. Failed checks are
// reported results, not process failures, unless strict mode asks for one.
func summarize(checks []pipeline.CheckResult, strict bool) error {
	failed := 0
	for _, check := range checks {
		if !check.Passed {
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("%d of %d checks failed\n", failed, len(checks))
		if strict {
			return fmt.Errorf("%d of %d checks failed", failed, len(checks))
		}
	}
	return nil
}
