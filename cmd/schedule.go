package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/queue"
	"github.com/jobradar/crawler/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Publish the recurring crawl workflow",
		Long: `Runs the cron process that enqueues the daily per-platform workflow
(category sync, URL discovery, detail processing) onto the message queue.
With --once the workflow is enqueued immediately and the command exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			once, err := cmd.Flags().GetBool("once")
			if err != nil {
				return err
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer flushLogger(logger)

			if !cfg.PubSub.Enabled {
				return fmt.Errorf("pubsub must be enabled to schedule work")
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

			sched, err := scheduler.New(provider, cfg.EnabledPlatforms(), cfg.Schedule.Cron, logger.Named("scheduler"))
			if err != nil {
				return err
			}

			if once {
				return sched.EnqueueRun(cmd.Context())
			}

			if err := sched.Start(); err != nil {
				return err
			}
			<-cmd.Context().Done()
			sched.Stop()
			logger.Info("scheduler stopped", zap.String("spec", cfg.Schedule.Cron))
			return nil
		},
	}
	cmd.Flags().Bool("once", false, "enqueue one workflow run immediately and exit")
	return cmd
}
