// Package cmd builds the shobdotori command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ridwan414/shobdotori/cmd/clean"
	"github.com/Ridwan414/shobdotori/cmd/reconcile"
	"github.com/Ridwan414/shobdotori/cmd/reset"
	"github.com/Ridwan414/shobdotori/cmd/seed"
	"github.com/Ridwan414/shobdotori/cmd/serve"
	"github.com/Ridwan414/shobdotori/cmd/status"
	"github.com/Ridwan414/shobdotori/internal/buildinfo"
	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/telemetry"
)

// RootCommand creates and returns the root command. Subcommands receive
// settings that are filled in by the persistent pre-run hook, after the
// config file has been read and the logger configured.
func RootCommand(info *buildinfo.Context) *cobra.Command {
	settings := &conf.Settings{}
	var (
		configPath string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:           "shobdotori",
		Short:         "Dialect speech recording service",
		Version:       info.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default: search ./, ~/.config/shobdotori, /etc/shobdotori)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		serve.Command(settings, info),
		seed.Command(settings),
		clean.Command(settings),
		reset.Command(settings),
		reconcile.Command(settings),
		status.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := conf.Load(configPath)
		if err != nil {
			return err
		}
		if debug {
			loaded.Debug = true
		}
		*settings = *loaded

		return initialize(settings, info)
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		telemetry.Flush()
		_ = logger.Global().Flush()
	}

	return rootCmd
}

// initialize configures logging and error telemetry from settings.
func initialize(settings *conf.Settings, info *buildinfo.Context) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if err := telemetry.InitSentry(&settings.Sentry, info); err != nil {
		// Telemetry is optional, the service runs without it
		central.Module("telemetry").Warn("sentry disabled", logger.Error(err))
	}

	central.Module("main").Debug("configuration loaded",
		logger.String("config_file", settings.ConfigFile),
		logger.String("version", info.GetVersion()))
	return nil
}
