// Package serve provides the serve command running the HTTP API.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/Ridwan414/shobdotori/internal/api"
	v1 "github.com/Ridwan414/shobdotori/internal/api/v1"
	"github.com/Ridwan414/shobdotori/internal/app"
	"github.com/Ridwan414/shobdotori/internal/buildinfo"
	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// Command creates and returns the serve command
func Command(settings *conf.Settings, info buildinfo.BuildInfo) *cobra.Command {
	var (
		port string
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recording HTTP API",
		Long: `Serve opens the progress database and the configured storage backend and
serves the recording API until interrupted. Dialects and sentences must be
seeded first with the seed command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				settings.WebServer.Port = port
			}
			if host != "" {
				settings.WebServer.Host = host
			}
			return run(cmd, settings, info)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides webserver.port)")
	cmd.Flags().StringVar(&host, "host", "", "Listen address (overrides webserver.host)")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, info buildinfo.BuildInfo) error {
	ctx := cmd.Context()
	log := logger.Global().Module("main")

	services, err := app.Open(ctx, settings, app.WithStorage(), app.WithEvents())
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Warn("failed to close services", logger.Error(err))
		}
	}()

	summary, err := services.Tracker.Summary(ctx)
	if err != nil {
		return err
	}
	if summary.TotalDialects == 0 {
		log.Warn("no dialects in the database, run the seed command first")
	}

	server, err := api.New(settings, v1.Dependencies{
		Tracker:   services.Tracker,
		Pipeline:  services.Pipeline,
		Admin:     services.Admin,
		Store:     services.Store,
		Folders:   services.Folders,
		DB:        services.DB,
		BuildInfo: info,
	}, api.WithMetrics(services.Metrics))
	if err != nil {
		return err
	}

	log.Info("shobdotori started",
		logger.String("version", info.GetVersion()),
		logger.String("storage", services.Store.Name()),
		logger.String("selection", services.Tracker.Selector().Name()),
		logger.Int("dialects", summary.TotalDialects),
		logger.Int64("recordings", summary.TotalRecordings),
		logger.String("progress", summary.OverallProgress+"%"))

	return server.StartWithGracefulShutdown(ctx)
}
