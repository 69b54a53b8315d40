package load

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/datastore"
	"github.com/yosefw/medlake-go/internal/ingest"
)

// Command creates the load command, which appends scraped message and
// detection documents to the raw store.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load scraped documents into the raw store",
		Long:  "Walks the configured input directories and appends every new message and detection document to the append-only raw store. Already loaded files are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Input.MessagesDir, "messages-dir", viper.GetString("input.messagesdir"), "Directory holding scraped message documents")
	cmd.Flags().StringVar(&settings.Input.DetectionsDir, "detections-dir", viper.GetString("input.detectionsdir"), "Directory holding image detection documents")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

func runLoad(settings *conf.Settings) error {
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

	loader := ingest.NewLoader(store, nil)

	messages, err := loader.IngestDir(settings.Input.MessagesDir)
	if err != nil {
		return err
	}
	detections, err := loader.IngestDetectionDir(settings.Input.DetectionsDir)
	if err != nil {
		return err
	}

	fmt.Printf("messages:   %d loaded, %d skipped, %d failed\n",
		messages.Loaded, messages.SkippedDuplicate, messages.Failed)
	fmt.Printf("detections: %d loaded, %d skipped, %d failed\n",
		detections.Loaded, detections.SkippedDuplicate, detections.Failed)
	return nil
}
