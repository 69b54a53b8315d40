package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yosefw/medlake-go/cmd/check"
	"github.com/yosefw/medlake-go/cmd/config"
	"github.com/yosefw/medlake-go/cmd/load"
	"github.com/yosefw/medlake-go/cmd/transform"
	"github.com/yosefw/medlake-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medlake",
		Short: "Medical channel warehouse CLI",
		Long:  "Loads scraped Telegram channel data and rebuilds the analytics warehouse tables.",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		load.Command(settings),
		transform.Command(settings),
		check.Command(settings),
		config.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Command-line arguments take precedence over the config file
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
