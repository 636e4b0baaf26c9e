package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pnwcrab/lighttrap-go/cmd"
	"github.com/pnwcrab/lighttrap-go/internal/conf"
	"github.com/pnwcrab/lighttrap-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)
	if settings.Main.Log.Enabled {
		logging.InitFileLog(settings.Main.Log.Path, level,
			settings.Main.Log.MaxSize, settings.Main.Log.MaxBackups)
	}
	defer logging.Close()

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed the error; a batch run either completes or
		// the operator fixes the input and reruns.
		os.Exit(1)
	}
}
