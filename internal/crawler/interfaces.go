package crawler

import (
	"context"
	"time"
)

// URLLister produces the raw discovery items for a platform. Implementations
// stream items to yield until the listing is exhausted or yield returns
// false. The sequence is finite (bounded by the platform's page limit) and
// not restartable: a fresh call starts the listing over.
type URLLister interface {
	ListURLs(ctx context.Context, yield func(Item) bool) error
}

// DetailFetcher retrieves the raw content of a single detail page. An empty
// string (or an error) signals failure to the caller.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, url string) (string, error)
}

// DetailParser turns raw detail content into a normalized Job. meta is the
// discovery-time item replayed from the cache; it may be empty but never nil.
// Malformed or insufficient input must be reported as an error, never as a
// partially-filled Job.
type DetailParser interface {
	ParseDetail(raw string, url string, meta Item) (*Job, error)
}

// CategorySource fetches a platform's native taxonomy, already flattened into
// Category rows. Platforms without a native taxonomy do not provide one.
type CategorySource interface {
	FetchCategories(ctx context.Context) ([]Category, error)
}

// Repository owns all read/write access to the relational store.
type Repository interface {
	SyncCategories(ctx context.Context, platform Platform, categories []Category) (SyncResult, error)
	Categories(ctx context.Context, platform Platform, sourceIDs []string) ([]Category, error)
	UpsertURLs(ctx context.Context, platform Platform, urls []string) error
	PendingURLs(ctx context.Context, platform Platform, limit int) ([]URLRecord, error)
	UpsertJobs(ctx context.Context, jobs []Job) error
	MarkURLsProcessed(ctx context.Context, statuses map[CrawlStatus][]string, at time.Time) error
}

// MetaCache stages transient per-URL discovery metadata. It is never the
// system of record: Get returns nil without error on a cache miss.
type MetaCache interface {
	Get(ctx context.Context, platform Platform, url string) (Item, error)
	SetBatch(ctx context.Context, platform Platform, items map[string]Item, ttl time.Duration) error
}

// Archiver optionally stores raw fetched content and returns its URI.
type Archiver interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside tests.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
