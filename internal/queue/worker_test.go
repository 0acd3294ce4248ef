package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobradar/crawler/internal/crawler"
)

type stubLister struct{ items []crawler.Item }

func (s *stubLister) ListURLs(_ context.Context, yield func(crawler.Item) bool) error {
	for _, item := range s.items {
		if !yield(item) {
			return nil
		}
	}
	return nil
}

type stubFetcher struct{ body string }

func (s *stubFetcher) FetchDetail(context.Context, string) (string, error) { return s.body, nil }

type stubParser struct{}

func (stubParser) ParseDetail(_ string, url string, _ crawler.Item) (*crawler.Job, error) {
	return &crawler.Job{URL: url, SourceJobID: "j1", Status: crawler.StatusActive}, nil
}

type stubCache struct{}

func (stubCache) Get(context.Context, crawler.Platform, string) (crawler.Item, error) {
	return nil, nil
}

func (stubCache) SetBatch(context.Context, crawler.Platform, map[string]crawler.Item, time.Duration) error {
	return nil
}

type recordingRepo struct {
	syncedPlatform crawler.Platform
	syncedCount    int
	syncErr        error
	upsertedURLs   []string
	pending        []crawler.URLRecord
	upsertedJobs   int
	markedCalls    int
}

func (r *recordingRepo) SyncCategories(_ context.Context, platform crawler.Platform, cats []crawler.Category) (crawler.SyncResult, error) {
	if r.syncErr != nil {
		return crawler.SyncResult{}, r.syncErr
	}
	r.syncedPlatform = platform
	r.syncedCount = len(cats)
	return crawler.SyncResult{Submitted: int64(len(cats)), Affected: int64(len(cats))}, nil
}

func (r *recordingRepo) Categories(context.Context, crawler.Platform, []string) ([]crawler.Category, error) {
	return nil, nil
}

func (r *recordingRepo) UpsertURLs(_ context.Context, _ crawler.Platform, urls []string) error {
	r.upsertedURLs = append(r.upsertedURLs, urls...)
	return nil
}

func (r *recordingRepo) PendingURLs(context.Context, crawler.Platform, int) ([]crawler.URLRecord, error) {
	return r.pending, nil
}

func (r *recordingRepo) UpsertJobs(_ context.Context, jobs []crawler.Job) error {
	r.upsertedJobs += len(jobs)
	return nil
}

func (r *recordingRepo) MarkURLsProcessed(context.Context, map[crawler.CrawlStatus][]string, time.Time) error {
	r.markedCalls++
	return nil
}

type stubCategories struct {
	cats []crawler.Category
	err  error
}

func (s *stubCategories) FetchCategories(context.Context) ([]crawler.Category, error) {
	return s.cats, s.err
}

func newTestWorker(t *testing.T, repo *recordingRepo, cats crawler.CategorySource) *Worker {
	t.Helper()

	orch, err := crawler.NewOrchestrator(
		crawler.Platform104,
		crawler.Settings{MaxWorkers: 2},
		&stubLister{items: []crawler.Item{{"url": "https://www.104.com.tw/job/a?x=1"}}},
		&stubFetcher{body: "<html>ok</html>"},
		stubParser{},
		repo,
		stubCache{},
		nil, nil, nil,
	)
	require.NoError(t, err)

	w, err := NewWorker(map[crawler.Platform]Runtime{
		crawler.Platform104: {Orchestrator: orch, Categories: cats},
	}, repo, 100, nil)
	require.NoError(t, err)
	return w
}

func TestHandleCategorySync(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	w := newTestWorker(t, repo, &stubCategories{cats: []crawler.Category{
		{SourceID: "1001", Name: "Backend"},
	}})

	err := w.Handle(context.Background(), NewTask(crawler.Platform104, OpCategorySync))
	require.NoError(t, err)
	require.Equal(t, crawler.Platform104, repo.syncedPlatform)
	require.Equal(t, 1, repo.syncedCount)
}

func TestHandleCategorySyncWithoutSourceIsNoop(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	w := newTestWorker(t, repo, nil)

	err := w.Handle(context.Background(), NewTask(crawler.Platform104, OpCategorySync))
	require.NoError(t, err)
	require.Zero(t, repo.syncedCount)
}

func TestHandleCategorySyncPropagatesFetchError(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	w := newTestWorker(t, repo, &stubCategories{err: errors.New("upstream 500")})
	w.cooldown = 10 * time.Millisecond

	start := time.Now()
	err := w.Handle(context.Background(), NewTask(crawler.Platform104, OpCategorySync))
	require.Error(t, err)
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestCategoryCooldownStopsOnCancel(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	w := newTestWorker(t, repo, &stubCategories{err: errors.New("upstream 500")})
	w.cooldown = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Handle(ctx, NewTask(crawler.Platform104, OpCategorySync))
	require.Error(t, err)
}

func TestHandleURLDiscovery(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{}
	w := newTestWorker(t, repo, nil)

	err := w.Handle(context.Background(), NewTask(crawler.Platform104, OpURLDiscovery))
	require.NoError(t, err)
	require.Equal(t, []string{"https://www.104.com.tw/job/a"}, repo.upsertedURLs)
}

func TestHandleDetailProcessing(t *testing.T) {
	t.Parallel()

	repo := &recordingRepo{pending: []crawler.URLRecord{
		{URL: "https://www.104.com.tw/job/a", Platform: crawler.Platform104},
	}}
	w := newTestWorker(t, repo, nil)

	err := w.Handle(context.Background(), NewTask(crawler.Platform104, OpDetailProcessing))
	require.NoError(t, err)
	require.Equal(t, 1, repo.upsertedJobs)
	require.Equal(t, 1, repo.markedCalls)
}

func TestHandleUnknownPlatform(t *testing.T) {
	t.Parallel()

	w := newTestWorker(t, &recordingRepo{}, nil)

	err := w.Handle(context.Background(), NewTask(crawler.PlatformYes123, OpURLDiscovery))
	require.Error(t, err)
}

func TestHandleUnknownOperation(t *testing.T) {
	t.Parallel()

	w := newTestWorker(t, &recordingRepo{}, nil)

	err := w.Handle(context.Background(), Task{Name: "tasks.platform_104.defrag", Platform: crawler.Platform104})
	require.Error(t, err)
}
