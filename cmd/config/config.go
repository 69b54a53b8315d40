package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yosefw/medlake-go/internal/conf"
)

// Command creates the config command, which shows the resolved settings and
// the config file they came from. With --write the resolved settings, flag
// overrides included, are persisted back to that file.
func Command(settings *conf.Settings) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(settings, write)
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Write the resolved settings back to the active config file")

	return cmd
}

func runConfig(settings *conf.Settings, write bool) error {
	configPath, err := conf.FindConfigFile()
	if err != nil {
		return err
	}
	fmt.Println("config file:", configPath)

	rendered, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error rendering settings: %w", err)
	}
	fmt.Print(string(rendered))

	if write {
		if err := conf.SaveYAMLConfig(configPath, settings); err != nil {
			return err
		}
		fmt.Println("settings written to:", configPath)
	}
	return nil
}
