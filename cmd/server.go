package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-ph/internal/app"
	"github.com/vzahanych/weather-ph/internal/config"
	"go.uber.org/zap"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the weather HTTP API and the notification scheduler",
		Long:  `Start the HTTP server for weather lookups and, when enabled, the periodic background notification job.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	log.Info("Starting weather server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port),
		zap.Bool("job_enabled", cfg.Job.Enabled))

	a, err := app.New(cfg, log, tele)
	if err != nil {
		log.Error("Failed to initialize application", zap.Error(err))
		return err
	}

	srv := a.Server()

	sched := a.Scheduler()
	if cfg.Job.Enabled {
		if err := sched.Start(); err != nil {
			log.Error("Failed to start scheduler", zap.Error(err))
			return err
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	var runErr error
	select {
	case runErr = <-errChan:
		if runErr != nil {
			log.Error("Server error", zap.Error(runErr))
		}
	case <-cmd.Context().Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if cfg.Job.Enabled {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
		runErr = err
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Error("Error during application shutdown", zap.Error(err))
		runErr = err
	}

	log.Info("Server shutdown complete")
	return runErr
}
