package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// schemaStatements create the three tables the pipeline writes to. Statements
// are idempotent so InitSchema can run on every deploy.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tb_category_source (
	id BIGSERIAL PRIMARY KEY,
	source_platform VARCHAR(64) NOT NULL,
	source_category_id VARCHAR(255) NOT NULL,
	source_category_name VARCHAR(255) NOT NULL,
	parent_source_id VARCHAR(255),
	CONSTRAINT uq_source_category UNIQUE (source_platform, source_category_id)
)`,
	`CREATE TABLE IF NOT EXISTS tb_urls (
	source_url VARCHAR(512) PRIMARY KEY,
	source_platform VARCHAR(64) NOT NULL,
	status VARCHAR(32) NOT NULL DEFAULT 'active',
	details_crawl_status VARCHAR(32) NOT NULL DEFAULT 'pending',
	crawled_at TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc'),
	updated_at TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc'),
	details_crawled_at TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_urls_platform ON tb_urls (source_platform)`,
	`CREATE INDEX IF NOT EXISTS idx_urls_status ON tb_urls (status)`,
	`CREATE INDEX IF NOT EXISTS idx_urls_details_crawl_status ON tb_urls (details_crawl_status)`,
	`CREATE TABLE IF NOT EXISTS tb_jobs (
	id BIGSERIAL PRIMARY KEY,
	source_platform VARCHAR(64) NOT NULL,
	source_job_id VARCHAR(255) NOT NULL,
	url VARCHAR(512) NOT NULL,
	status VARCHAR(32) NOT NULL,
	title VARCHAR(255) NOT NULL,
	description TEXT,
	job_type VARCHAR(32),
	location_text VARCHAR(255),
	posted_at TIMESTAMP,
	salary_text VARCHAR(255),
	salary_min INTEGER,
	salary_max INTEGER,
	salary_type VARCHAR(32),
	experience_required_text VARCHAR(255),
	education_required_text VARCHAR(255),
	company_source_id VARCHAR(255),
	company_name VARCHAR(255),
	company_url VARCHAR(512),
	created_at TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc'),
	updated_at TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc'),
	CONSTRAINT uq_source_job UNIQUE (source_platform, source_job_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_platform ON tb_jobs (source_platform)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_source_job_id ON tb_jobs (source_job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_url ON tb_jobs (url)`,
}

// InitSchema creates the tables and indexes if they do not exist yet.
func (r *Repository) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	r.logger.Info("database schema ready", zap.Int("statements", len(schemaStatements)))
	return nil
}
