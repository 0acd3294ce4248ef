package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MetaTTL is how long staged discovery metadata lives in the cache.
const MetaTTL = 24 * time.Hour

// Settings carries the per-platform knobs the orchestrator needs.
type Settings struct {
	MaxWorkers int
}

// Orchestrator drives the two pipeline procedures for a single platform,
// composing the bound strategy instances with the repository and cache.
// It holds per-run state only.
type Orchestrator struct {
	platform Platform
	settings Settings
	lister   URLLister
	fetcher  DetailFetcher
	parser   DetailParser
	repo     Repository
	cache    MetaCache
	archive  Archiver
	clock    Clock
	logger   *zap.Logger
}

// NewOrchestrator validates the platform and wiring eagerly; a bad platform
// or missing dependency aborts before any I/O.
func NewOrchestrator(
	platform Platform,
	settings Settings,
	lister URLLister,
	fetcher DetailFetcher,
	parser DetailParser,
	repo Repository,
	cache MetaCache,
	archive Archiver,
	clock Clock,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	if settings.MaxWorkers <= 0 {
		return nil, fmt.Errorf("[%s] max_workers must be > 0", platform)
	}
	if lister == nil || fetcher == nil || parser == nil {
		return nil, fmt.Errorf("[%s] all three strategies are required", platform)
	}
	if repo == nil {
		return nil, fmt.Errorf("[%s] repository is required", platform)
	}
	if cache == nil {
		return nil, fmt.Errorf("[%s] meta cache is required", platform)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		platform: platform,
		settings: settings,
		lister:   lister,
		fetcher:  fetcher,
		parser:   parser,
		repo:     repo,
		cache:    cache,
		archive:  archive,
		clock:    clock,
		logger:   logger.With(zap.String("platform", string(platform))),
	}, nil
}

// Platform returns the platform this orchestrator was constructed for.
func (o *Orchestrator) Platform() Platform { return o.platform }

// Fetcher exposes the bound detail fetcher for the debug command.
func (o *Orchestrator) Fetcher() DetailFetcher { return o.fetcher }

// Parser exposes the bound detail parser for the debug command.
func (o *Orchestrator) Parser() DetailParser { return o.parser }

// RunURLDiscovery streams the listing, derives and dedups absolute URLs,
// upserts them as ACTIVE/PENDING re-crawl candidates and stages each raw item
// in the cache for replay during detail parsing. Re-running with the same
// inputs upserts the same rows: the URL string is the conflict key.
func (o *Orchestrator) RunURLDiscovery(ctx context.Context) error {
	o.logger.Info("starting url discovery")

	var (
		urls   []string
		seen   = map[string]struct{}{}
		staged = map[string]Item{}
		items  int
	)
	err := o.lister.ListURLs(ctx, func(item Item) bool {
		items++
		u, derr := DeriveURL(o.platform, item)
		if derr != nil {
			ItemsDropped.WithLabelValues(string(o.platform)).Inc()
			o.logger.Warn("dropping item with no derivable url", zap.Error(derr), zap.Any("item", map[string]any(item)))
			return true
		}
		if _, dup := seen[u]; !dup {
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
		staged[u] = item
		return ctx.Err() == nil
	})
	if err != nil {
		return fmt.Errorf("list urls: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	o.logger.Info("listing finished", zap.Int("items", items), zap.Int("urls", len(urls)))

	if len(urls) == 0 {
		o.logger.Info("no urls derived, nothing to sync")
		return nil
	}

	if err := o.repo.UpsertURLs(ctx, o.platform, urls); err != nil {
		return fmt.Errorf("upsert urls: %w", err)
	}
	if err := o.cache.SetBatch(ctx, o.platform, staged, MetaTTL); err != nil {
		return fmt.Errorf("stage discovery metadata: %w", err)
	}
	URLsDiscovered.WithLabelValues(string(o.platform)).Add(float64(len(urls)))
	o.logger.Info("synced urls", zap.Int("count", len(urls)))
	return nil
}

// detailOutcome is the per-URL result of a detail unit of work.
type detailOutcome struct {
	job *Job
}

// RunDetailProcessing pulls up to limit PENDING URLs, fans the fetch+parse
// units out over a bounded pool, then reconciles: parsed jobs are upserted in
// one batch and every candidate URL ends in exactly one terminal status.
// Per-URL failures are contained here; only store-level failures propagate.
func (o *Orchestrator) RunDetailProcessing(ctx context.Context, limit int) error {
	o.logger.Info("starting detail processing", zap.Int("limit", limit))

	candidates, err := o.repo.PendingURLs(ctx, o.platform, limit)
	if err != nil {
		return fmt.Errorf("load pending urls: %w", err)
	}
	if len(candidates) == 0 {
		o.logger.Info("no pending urls")
		return nil
	}

	results := RunPool(ctx, o.settings.MaxWorkers, candidates, o.processURL)

	var (
		jobs      []Job
		completed []string
		failed    []string
	)
	for i, res := range results {
		u := candidates[i].URL
		if res.Err != nil || res.Value.job == nil {
			err := res.Err
			if err == nil {
				err = errors.New("unit of work returned no job")
			}
			o.logger.Error("detail processing failed", zap.String("url", u), zap.Error(err))
			failed = append(failed, u)
			continue
		}
		completed = append(completed, u)
		jobs = append(jobs, *res.Value.job)
	}

	if len(jobs) > 0 {
		if err := o.repo.UpsertJobs(ctx, jobs); err != nil {
			return fmt.Errorf("upsert jobs: %w", err)
		}
	}

	if len(completed)+len(failed) > 0 {
		o.logger.Info("marking url statuses",
			zap.Int("completed", len(completed)),
			zap.Int("failed", len(failed)),
		)
		statuses := map[CrawlStatus][]string{
			CrawlCompleted: completed,
			CrawlFailed:    failed,
		}
		if err := o.repo.MarkURLsProcessed(ctx, statuses, o.clock.Now()); err != nil {
			return fmt.Errorf("mark urls processed: %w", err)
		}
	}
	DetailsCompleted.WithLabelValues(string(o.platform)).Add(float64(len(completed)))
	DetailsFailed.WithLabelValues(string(o.platform)).Add(float64(len(failed)))
	o.logger.Info("detail processing finished")
	return nil
}

// processURL is the per-URL unit of work: replay cached metadata, fetch,
// parse. A cache miss hands the parser an empty Item, not a failure.
func (o *Orchestrator) processURL(ctx context.Context, rec URLRecord) (detailOutcome, error) {
	meta, err := o.cache.Get(ctx, o.platform, rec.URL)
	if err != nil {
		o.logger.Warn("metadata lookup failed, continuing without", zap.String("url", rec.URL), zap.Error(err))
		meta = nil
	}
	if meta == nil {
		meta = Item{}
	}

	raw, err := o.fetcher.FetchDetail(ctx, rec.URL)
	if err != nil {
		return detailOutcome{}, fmt.Errorf("fetch detail: %w", err)
	}
	if raw == "" {
		return detailOutcome{}, errors.New("fetched content is empty")
	}

	job, err := o.parser.ParseDetail(raw, rec.URL, meta)
	if err != nil {
		return detailOutcome{}, fmt.Errorf("parse detail: %w", err)
	}
	if job == nil {
		return detailOutcome{}, errors.New("parser returned no result")
	}

	o.archiveContent(ctx, job, raw)
	return detailOutcome{job: job}, nil
}

// archiveContent stores raw page content best-effort; archival never fails
// the unit of work.
func (o *Orchestrator) archiveContent(ctx context.Context, job *Job, raw string) {
	if o.archive == nil {
		return
	}
	path := fmt.Sprintf("%s/%s.html", o.platform, job.SourceJobID)
	if _, err := o.archive.PutObject(ctx, path, "text/html; charset=utf-8", []byte(raw)); err != nil {
		o.logger.Warn("archive raw content failed", zap.String("url", job.URL), zap.Error(err))
	}
}
