package main

import (
	"fmt"
	"os"

	"github.com/yosefw/medlake-go/cmd"
	"github.com/yosefw/medlake-go/internal/conf"
	"github.com/yosefw/medlake-go/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(settings))
}

// run wraps command execution so deferred cleanup survives the exit path.
func run(settings *conf.Settings) int {
	closeLog, err := logging.SetupFileLogging(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error setting up file logging: %v\n", err)
		return 1
	}
	defer func() {
		_ = closeLog()
	}()

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}
