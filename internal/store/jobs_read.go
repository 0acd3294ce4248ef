package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jobradar/crawler/internal/crawler"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// JobFilter narrows a ListJobs query. Zero values mean "no filter".
type JobFilter struct {
	Keyword  string
	Platform crawler.Platform
	Skip     int
	Limit    int
}

const jobColumns = `
id, source_platform, source_job_id, url, status, title, description, job_type,
location_text, posted_at, salary_text, salary_min, salary_max, salary_type,
experience_required_text, education_required_text, company_source_id,
company_name, company_url, created_at, updated_at`

// ListJobs returns jobs matching the filter, newest-updated first. Filters
// that match nothing yield an empty list, never an error.
func (r *Repository) ListJobs(ctx context.Context, filter JobFilter) ([]crawler.Job, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}

	query := "SELECT " + jobColumns + " FROM tb_jobs WHERE 1=1"
	var args []any
	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		ph := fmt.Sprintf("$%d", len(args))
		query += fmt.Sprintf(" AND (title ILIKE %s OR company_name ILIKE %s)", ph, ph)
	}
	if filter.Platform != "" {
		args = append(args, filter.Platform)
		query += fmt.Sprintf(" AND source_platform = $%d", len(args))
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	out := []crawler.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

// JobByID looks up one job by its database id.
func (r *Repository) JobByID(ctx context.Context, id int64) (crawler.Job, error) {
	query := "SELECT " + jobColumns + " FROM tb_jobs WHERE id = $1"
	row := r.pool.QueryRow(ctx, query, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawler.Job{}, ErrNotFound
	}
	if err != nil {
		return crawler.Job{}, err
	}
	return job, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (crawler.Job, error) {
	var (
		job         crawler.Job
		description *string
		jobType     *string
		location    *string
		salaryText  *string
		salaryType  *string
		experience  *string
		education   *string
		companyID   *string
		companyName *string
		companyURL  *string
	)
	err := row.Scan(
		&job.ID, &job.Platform, &job.SourceJobID, &job.URL, &job.Status,
		&job.Title, &description, &jobType, &location, &job.PostedAt,
		&salaryText, &job.SalaryMin, &job.SalaryMax, &salaryType,
		&experience, &education, &companyID, &companyName, &companyURL,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return crawler.Job{}, err
		}
		return crawler.Job{}, fmt.Errorf("scan job: %w", err)
	}
	job.Description = deref(description)
	job.JobType = crawler.JobType(deref(jobType))
	job.LocationText = deref(location)
	job.SalaryText = deref(salaryText)
	job.SalaryType = crawler.SalaryType(deref(salaryType))
	job.ExperienceText = deref(experience)
	job.EducationText = deref(education)
	job.CompanyID = deref(companyID)
	job.CompanyName = deref(companyName)
	job.CompanyURL = deref(companyURL)
	return job, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
