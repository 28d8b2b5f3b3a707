package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-ph/internal/app"
	"github.com/vzahanych/weather-ph/internal/config"
	"go.uber.org/zap"
)

func notifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Run the background notification job once",
		Long:  `Run the notification job once and exit non-zero when it fails. Useful from cron.`,
		RunE:  runNotify,
	}
}

func runNotify(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	a, err := app.New(cfg, log, tele)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if timeout := a.JobTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runErr := a.Job.Run(ctx)
	if runErr != nil {
		log.Error("Notification job failed", zap.Error(runErr))
	}

	// Close renders whatever the job enqueued before exiting.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer closeCancel()
	if err := a.Close(closeCtx); err != nil {
		log.Warn("Error during shutdown", zap.Error(err))
	}

	return runErr
}
