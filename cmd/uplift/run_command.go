package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"uplift/internal/keypool"
	"uplift/internal/logging"
	"uplift/internal/pipeline"
	"uplift/internal/queue"
	"uplift/internal/topaz"
	"uplift/internal/transcode"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue until it is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, closeLogs, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			defer func() { _ = closeLogs() }()

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			logger.Info("queue opened", logging.String("path", store.Path()))

			pool, err := keypool.New(keypool.NewFileStore(cfg.Paths.APIKeyFile))
			if err != nil {
				return fmt.Errorf("load api keys: %w", err)
			}
			if pool.Len() == 0 {
				return fmt.Errorf("%w in %s", keypool.ErrEmpty, cfg.Paths.APIKeyFile)
			}
			logger.Info("loaded api keys", logging.Int("count", pool.Len()))

			client := topaz.NewClient(cfg.API.BaseURL,
				topaz.WithTimeout(time.Duration(cfg.API.RequestTimeout)*time.Second))
			prober := pipeline.NewCommandProber(cfg.Transcode.FFprobeBinary)
			transcoder := transcode.NewCommandTranscoder(logger,
				transcode.WithBinary(cfg.Transcode.FFmpegBinary))

			runner, err := pipeline.New(cfg, logger, store, pool, client, prober, transcoder)
			if err != nil {
				return err
			}

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			wireSignals(runCtx, runner.Control(), logger)

			return runner.Run(runCtx)
		},
	}
}

// wireSignals maps SIGINT/SIGTERM to a stop request and SIGUSR1 to a pause
// toggle.
func wireSignals(ctx context.Context, control *pipeline.Control, logger *slog.Logger) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	pauseCh := make(chan os.Signal, 1)
	signal.Notify(pauseCh, syscall.SIGUSR1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				signal.Stop(stopCh)
				signal.Stop(pauseCh)
				return
			case sig := <-stopCh:
				logger.Info("received stop signal", "signal", sig.String())
				control.RequestStop()
			case <-pauseCh:
				if control.TogglePause() {
					logger.Info("pipeline paused")
				} else {
					logger.Info("pipeline resumed")
				}
			}
		}
	}()
}
