// Package scheduler enqueues the recurring crawl workflow. One cron entry
// fires per day and publishes the per-platform task sequence to the queue;
// the worker does the actual crawling.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/queue"
)

// publishTimeout bounds one full enqueue round.
const publishTimeout = time.Minute

// Scheduler owns the cron process.
type Scheduler struct {
	cron      *cron.Cron
	provider  queue.Provider
	platforms []crawler.Platform
	spec      string
	logger    *zap.Logger
}

// New validates the cron spec eagerly so a typo fails at startup, not at
// 2 AM.
func New(provider queue.Provider, platforms []crawler.Platform, spec string, logger *zap.Logger) (*Scheduler, error) {
	if provider == nil {
		return nil, fmt.Errorf("scheduler needs a queue provider")
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("scheduler needs at least one platform")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:      cron.New(),
		provider:  provider,
		platforms: platforms,
		spec:      spec,
		logger:    logger,
	}, nil
}

// Start registers the daily entry and launches the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.EnqueueRun(ctx); err != nil {
			s.logger.Error("scheduled enqueue failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("register cron entry: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("spec", s.spec),
		zap.Int("platforms", len(s.platforms)),
	)
	return nil
}

// Stop halts the cron loop and waits for a running enqueue to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// EnqueueRun publishes the full workflow for every platform: category sync on
// its own lane, then URL discovery and detail processing on the default lane.
// The worker consumes the default lane one message at a time, but the broker
// does not promise publish-order delivery, so a detail run can land before
// the same day's discovery. That is safe: detail processing drains whatever
// PENDING URLs exist, and the late discovery feeds the next run.
func (s *Scheduler) EnqueueRun(ctx context.Context) error {
	for _, platform := range s.platforms {
		for _, op := range []string{queue.OpCategorySync, queue.OpURLDiscovery, queue.OpDetailProcessing} {
			task := queue.NewTask(platform, op)
			if err := s.provider.Publish(ctx, task); err != nil {
				return fmt.Errorf("publish %s: %w", task.Name, err)
			}
		}
		s.logger.Info("enqueued workflow", zap.String("platform", string(platform)))
	}
	return nil
}
