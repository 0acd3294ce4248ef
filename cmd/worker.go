package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/queue"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume pipeline tasks from the message queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer flushLogger(logger)

			if !cfg.PubSub.Enabled {
				return fmt.Errorf("pubsub must be enabled to run a worker")
			}

			svc, err := openServices(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			runtimes, err := svc.runtimes()
			if err != nil {
				return err
			}
			worker, err := queue.NewWorker(runtimes, svc.repo, cfg.Worker.DetailLimit, logger.Named("worker"))
			if err != nil {
				return err
			}

			provider, err := queue.NewPubSubProvider(cmd.Context(), cfg.PubSub.QueueConfig(), logger.Named("queue"))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := provider.Close(); cerr != nil {
					logger.Warn("close queue provider", zap.Error(cerr))
				}
			}()

			logger.Info("worker started", zap.Int("platforms", len(runtimes)))
			return worker.Run(cmd.Context(), provider)
		},
	}
}
