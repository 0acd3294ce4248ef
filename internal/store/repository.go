// Package store provides the Postgres-backed repository. It exclusively owns
// read/write access to the category, url and job tables; every mutation runs
// in its own short-lived transaction and relies on unique-key upserts for
// concurrency safety.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
)

// Pool is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Repository implements crawler.Repository over Postgres.
type Repository struct {
	pool   Pool
	logger *zap.Logger
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// New connects a pool from cfg and pings it.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewWithPool(pool, logger), nil
}

// NewWithPool constructs a Repository from an existing pool (primarily for
// testing).
func NewWithPool(pool Pool, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{pool: pool, logger: logger}
}

// Close releases the underlying pool resources.
func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// SyncCategories bulk-upserts a platform's taxonomy, keyed on
// (platform, source id). Name and parent may change on re-sync; rows are
// never deleted.
func (r *Repository) SyncCategories(ctx context.Context, platform crawler.Platform, categories []crawler.Category) (crawler.SyncResult, error) {
	if len(categories) == 0 {
		return crawler.SyncResult{}, nil
	}

	var (
		values []string
		args   []any
	)
	for i, cat := range categories {
		base := i * 4
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		args = append(args, platform, cat.SourceID, cat.Name, cat.ParentSourceID)
	}
	query := fmt.Sprintf(`
INSERT INTO tb_category_source (source_platform, source_category_id, source_category_name, parent_source_id)
VALUES %s
ON CONFLICT (source_platform, source_category_id) DO UPDATE SET
	source_category_name = EXCLUDED.source_category_name,
	parent_source_id = EXCLUDED.parent_source_id`, strings.Join(values, ","))

	tag, err := r.execInTx(ctx, query, args)
	if err != nil {
		return crawler.SyncResult{}, fmt.Errorf("sync categories: %w", err)
	}
	r.logger.Info("synced categories",
		zap.String("platform", string(platform)),
		zap.Int("submitted", len(categories)),
		zap.Int64("affected", tag.RowsAffected()),
	)
	return crawler.SyncResult{Submitted: int64(len(categories)), Affected: tag.RowsAffected()}, nil
}

// Categories lists a platform's taxonomy, optionally filtered to sourceIDs.
func (r *Repository) Categories(ctx context.Context, platform crawler.Platform, sourceIDs []string) ([]crawler.Category, error) {
	query := `
SELECT id, source_platform, source_category_id, source_category_name, parent_source_id
FROM tb_category_source
WHERE source_platform = $1`
	args := []any{platform}
	if len(sourceIDs) > 0 {
		query += " AND source_category_id = ANY($2)"
		args = append(args, sourceIDs)
	}
	query += " ORDER BY source_category_id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []crawler.Category
	for rows.Next() {
		var cat crawler.Category
		if err := rows.Scan(&cat.ID, &cat.Platform, &cat.SourceID, &cat.Name, &cat.ParentSourceID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// UpsertURLs bulk-upserts discovered URLs, keyed on the URL string itself.
// Re-discovery resets liveness to ACTIVE and the detail-crawl status to
// PENDING; the original discovery timestamp survives the conflict.
func (r *Repository) UpsertURLs(ctx context.Context, platform crawler.Platform, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	now := time.Now().UTC()

	var (
		values []string
		args   []any
	)
	for i, u := range urls {
		base := i * 6
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, u, platform, crawler.StatusActive, crawler.CrawlPending, now, now)
	}
	query := fmt.Sprintf(`
INSERT INTO tb_urls (source_url, source_platform, status, details_crawl_status, crawled_at, updated_at)
VALUES %s
ON CONFLICT (source_url) DO UPDATE SET
	status = EXCLUDED.status,
	details_crawl_status = EXCLUDED.details_crawl_status,
	updated_at = EXCLUDED.updated_at`, strings.Join(values, ","))

	if _, err := r.execInTx(ctx, query, args); err != nil {
		return fmt.Errorf("upsert urls: %w", err)
	}
	return nil
}

// PendingURLs returns up to limit URLs still awaiting a detail crawl, in a
// deterministic order.
func (r *Repository) PendingURLs(ctx context.Context, platform crawler.Platform, limit int) ([]crawler.URLRecord, error) {
	query := `
SELECT source_url, source_platform, status, details_crawl_status, crawled_at, updated_at, details_crawled_at
FROM tb_urls
WHERE source_platform = $1 AND details_crawl_status = $2
ORDER BY source_url
LIMIT $3`

	rows, err := r.pool.Query(ctx, query, platform, crawler.CrawlPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending urls: %w", err)
	}
	defer rows.Close()

	var out []crawler.URLRecord
	for rows.Next() {
		var rec crawler.URLRecord
		if err := rows.Scan(&rec.URL, &rec.Platform, &rec.Status, &rec.DetailStatus, &rec.DiscoveredAt, &rec.UpdatedAt, &rec.DetailCrawledAt); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending urls: %w", err)
	}
	return out, nil
}

// UpsertJobs bulk-upserts normalized listings, keyed on
// (platform, source job id) rather than URL. Conflicts overwrite every
// mutable column; created_at is preserved from the first insert. The whole
// batch commits or rolls back as one transaction.
func (r *Repository) UpsertJobs(ctx context.Context, jobs []crawler.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	now := time.Now().UTC()

	var (
		values []string
		args   []any
	)
	for i, job := range jobs {
		base := i * 19
		ph := make([]string, 19)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(ph, ",")+")")
		args = append(args,
			job.Platform,
			job.SourceJobID,
			job.URL,
			job.Status,
			job.Title,
			nullIfEmpty(job.Description),
			nullIfEmpty(string(job.JobType)),
			nullIfEmpty(job.LocationText),
			job.PostedAt,
			nullIfEmpty(job.SalaryText),
			job.SalaryMin,
			job.SalaryMax,
			nullIfEmpty(string(job.SalaryType)),
			nullIfEmpty(job.ExperienceText),
			nullIfEmpty(job.EducationText),
			nullIfEmpty(job.CompanyID),
			nullIfEmpty(job.CompanyName),
			nullIfEmpty(job.CompanyURL),
			now,
		)
	}
	query := fmt.Sprintf(`
INSERT INTO tb_jobs (
	source_platform, source_job_id, url, status, title, description, job_type,
	location_text, posted_at, salary_text, salary_min, salary_max, salary_type,
	experience_required_text, education_required_text, company_source_id,
	company_name, company_url, updated_at
) VALUES %s
ON CONFLICT (source_platform, source_job_id) DO UPDATE SET
	url = EXCLUDED.url,
	status = EXCLUDED.status,
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	job_type = EXCLUDED.job_type,
	location_text = EXCLUDED.location_text,
	posted_at = EXCLUDED.posted_at,
	salary_text = EXCLUDED.salary_text,
	salary_min = EXCLUDED.salary_min,
	salary_max = EXCLUDED.salary_max,
	salary_type = EXCLUDED.salary_type,
	experience_required_text = EXCLUDED.experience_required_text,
	education_required_text = EXCLUDED.education_required_text,
	company_source_id = EXCLUDED.company_source_id,
	company_name = EXCLUDED.company_name,
	company_url = EXCLUDED.company_url,
	updated_at = EXCLUDED.updated_at`, strings.Join(values, ","))

	tag, err := r.execInTx(ctx, query, args)
	if err != nil {
		return fmt.Errorf("upsert jobs: %w", err)
	}
	r.logger.Info("upserted jobs", zap.Int("submitted", len(jobs)), zap.Int64("affected", tag.RowsAffected()))
	return nil
}

// MarkURLsProcessed batch-updates terminal crawl statuses, one UPDATE per
// target status, sharing a single timestamp and transaction.
func (r *Repository) MarkURLsProcessed(ctx context.Context, statuses map[crawler.CrawlStatus][]string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(ctx, tx, r.logger)

	query := `
UPDATE tb_urls
SET details_crawl_status = $1, details_crawled_at = $2, updated_at = $2
WHERE source_url = ANY($3)`
	for _, status := range []crawler.CrawlStatus{crawler.CrawlCompleted, crawler.CrawlFailed} {
		urls := statuses[status]
		if len(urls) == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, query, status, at, urls); err != nil {
			return fmt.Errorf("mark urls %s: %w", status, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// StatusSummary counts URLs grouped by platform and detail-crawl status.
func (r *Repository) StatusSummary(ctx context.Context) ([]crawler.StatusCount, error) {
	query := `
SELECT source_platform, details_crawl_status, COUNT(source_url)
FROM tb_urls
GROUP BY source_platform, details_crawl_status
ORDER BY source_platform, details_crawl_status`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query status summary: %w", err)
	}
	defer rows.Close()

	var out []crawler.StatusCount
	for rows.Next() {
		var sc crawler.StatusCount
		if err := rows.Scan(&sc.Platform, &sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan status summary: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status summary: %w", err)
	}
	return out, nil
}

func (r *Repository) execInTx(ctx context.Context, query string, args []any) (pgconn.CommandTag, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(ctx, tx, r.logger)

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("commit tx: %w", err)
	}
	return tag, nil
}

func rollback(ctx context.Context, tx pgx.Tx, logger *zap.Logger) {
	if err := tx.Rollback(ctx); err != nil && !isTxClosed(err) {
		logger.Warn("tx rollback failed", zap.Error(err))
	}
}

func isTxClosed(err error) bool {
	return errors.Is(err, pgx.ErrTxClosed)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
