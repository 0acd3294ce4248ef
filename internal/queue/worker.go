package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
)

// categoryCooldown delays redelivery of a failed category sync. Taxonomy
// endpoints fail as a whole (outage, layout change), so an immediate retry
// would just burn the redelivery budget.
const categoryCooldown = 3 * time.Minute

// Runtime bundles everything the worker can run for one platform. Categories
// is nil for platforms without a taxonomy endpoint.
type Runtime struct {
	Orchestrator *crawler.Orchestrator
	Categories   crawler.CategorySource
}

// Worker consumes tasks and dispatches them to platform runtimes.
type Worker struct {
	runtimes    map[crawler.Platform]Runtime
	repo        crawler.Repository
	detailLimit int
	cooldown    time.Duration
	logger      *zap.Logger
}

// NewWorker wires the worker. detailLimit bounds a detail-processing run when
// the task itself does not carry a limit.
func NewWorker(runtimes map[crawler.Platform]Runtime, repo crawler.Repository, detailLimit int, logger *zap.Logger) (*Worker, error) {
	if len(runtimes) == 0 {
		return nil, fmt.Errorf("worker needs at least one platform runtime")
	}
	if repo == nil {
		return nil, fmt.Errorf("worker needs a repository")
	}
	if detailLimit <= 0 {
		detailLimit = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		runtimes:    runtimes,
		repo:        repo,
		detailLimit: detailLimit,
		cooldown:    categoryCooldown,
		logger:      logger,
	}, nil
}

// Handle runs one task to completion. Errors propagate so the provider nacks
// the message and the broker redelivers it.
func (w *Worker) Handle(ctx context.Context, task Task) error {
	rt, ok := w.runtimes[task.Platform]
	if !ok {
		return fmt.Errorf("no runtime for platform %q", task.Platform)
	}
	w.logger.Info("handling task",
		zap.String("task", task.Name),
		zap.String("platform", string(task.Platform)),
	)

	switch operationOf(task.Name) {
	case OpCategorySync:
		if err := w.syncCategories(ctx, task.Platform, rt); err != nil {
			w.holdForRetry(ctx, task, err)
			return err
		}
		return nil
	case OpURLDiscovery:
		return rt.Orchestrator.RunURLDiscovery(ctx)
	case OpDetailProcessing:
		limit := task.Limit
		if limit <= 0 {
			limit = w.detailLimit
		}
		return rt.Orchestrator.RunDetailProcessing(ctx, limit)
	default:
		return fmt.Errorf("unknown task %q", task.Name)
	}
}

// Run subscribes both lanes and blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context, provider Provider) error {
	errs := make(chan error, 2)
	for _, lane := range []Lane{LaneDefault, LaneCategory} {
		lane := lane
		go func() {
			errs <- provider.Subscribe(ctx, lane, w.Handle)
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil && ctx.Err() == nil {
			return err
		}
	}
	return ctx.Err()
}

// holdForRetry keeps the message outstanding for the cooldown before the
// error nacks it. With single-message prefetch on the lane this spaces out
// redeliveries without broker-side retry policy.
func (w *Worker) holdForRetry(ctx context.Context, task Task, cause error) {
	w.logger.Warn("category sync failed, holding before redelivery",
		zap.String("task", task.Name),
		zap.String("platform", string(task.Platform)),
		zap.Duration("cooldown", w.cooldown),
		zap.Error(cause),
	)
	select {
	case <-ctx.Done():
	case <-time.After(w.cooldown):
	}
}

func (w *Worker) syncCategories(ctx context.Context, platform crawler.Platform, rt Runtime) error {
	if rt.Categories == nil {
		w.logger.Info("platform has no category source, skipping",
			zap.String("platform", string(platform)))
		return nil
	}
	cats, err := rt.Categories.FetchCategories(ctx)
	if err != nil {
		return fmt.Errorf("fetch categories for %s: %w", platform, err)
	}
	res, err := w.repo.SyncCategories(ctx, platform, cats)
	if err != nil {
		return err
	}
	w.logger.Info("category sync finished",
		zap.String("platform", string(platform)),
		zap.Int64("submitted", res.Submitted),
		zap.Int64("affected", res.Affected),
	)
	return nil
}

func operationOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}
