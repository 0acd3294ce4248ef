package cmd

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/archive"
	"github.com/jobradar/crawler/internal/cache"
	"github.com/jobradar/crawler/internal/config"
	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/queue"
	"github.com/jobradar/crawler/internal/request"
	"github.com/jobradar/crawler/internal/sites"
	"github.com/jobradar/crawler/internal/store"
)

// services bundles the shared backends the pipeline commands wire up:
// repository, metadata cache, HTTP client and the optional archive.
type services struct {
	cfg      config.Config
	logger   *zap.Logger
	repo     *store.Repository
	cache    *cache.Redis
	client   *request.Client
	archiver crawler.Archiver

	gcs *storage.Client
}

// openServices connects everything the crawl pipeline needs. Callers must
// Close it.
func openServices(ctx context.Context, cfg config.Config, logger *zap.Logger) (*services, error) {
	repo, err := store.New(ctx, cfg.DB.StoreConfig(), logger.Named("store"))
	if err != nil {
		return nil, err
	}

	metaCache, err := cache.New(ctx, cfg.Redis.URL, logger.Named("cache"))
	if err != nil {
		repo.Close()
		return nil, err
	}

	s := &services{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		cache:  metaCache,
		client: request.NewClient(cfg.HTTP.ClientConfig(), logger.Named("http")),
	}

	if cfg.Archive.Enabled {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect gcs: %w", err)
		}
		s.gcs = gcsClient
		archiver, err := archive.NewGCS(gcsClient, archive.GCSConfig{
			Bucket: cfg.Archive.GCSBucket,
			Prefix: cfg.Archive.Prefix,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.archiver = archiver
	}

	return s, nil
}

// Close releases all backends.
func (s *services) Close() {
	if s.gcs != nil {
		if err := s.gcs.Close(); err != nil {
			s.logger.Warn("close gcs client", zap.Error(err))
		}
	}
	if err := s.cache.Close(); err != nil {
		s.logger.Warn("close cache", zap.Error(err))
	}
	s.repo.Close()
}

// runtime builds the orchestrator and category source for one platform.
func (s *services) runtime(platform crawler.Platform) (queue.Runtime, error) {
	pc := s.cfg.Platform(platform)
	bundle, err := sites.Build(platform, sites.Deps{
		Client:   s.client,
		Headers:  pc.Headers,
		MaxPages: pc.MaxPages,
		LoadCategories: func(ctx context.Context) ([]crawler.Category, error) {
			return s.repo.Categories(ctx, platform, nil)
		},
		Logger: s.logger,
	})
	if err != nil {
		return queue.Runtime{}, err
	}

	orch, err := crawler.NewOrchestrator(
		platform,
		pc.Settings(),
		bundle.Lister,
		bundle.Fetcher,
		bundle.Parser,
		s.repo,
		s.cache,
		s.archiver,
		nil,
		s.logger,
	)
	if err != nil {
		return queue.Runtime{}, err
	}
	return queue.Runtime{Orchestrator: orch, Categories: bundle.Categories}, nil
}

// runtimes builds a runtime for every enabled platform.
func (s *services) runtimes() (map[crawler.Platform]queue.Runtime, error) {
	out := map[crawler.Platform]queue.Runtime{}
	for _, platform := range s.cfg.EnabledPlatforms() {
		rt, err := s.runtime(platform)
		if err != nil {
			return nil, fmt.Errorf("build runtime for %s: %w", platform, err)
		}
		out[platform] = rt
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no platforms enabled")
	}
	return out, nil
}
