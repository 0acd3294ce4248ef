// Package api exposes the read-only query surface over collected job data.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/store"
)

const maxPageSize = 1000

// QueryStore is the read-side repository surface the server needs.
type QueryStore interface {
	ListJobs(ctx context.Context, filter store.JobFilter) ([]crawler.Job, error)
	JobByID(ctx context.Context, id int64) (crawler.Job, error)
	StatusSummary(ctx context.Context) ([]crawler.StatusCount, error)
}

// Server serves the query endpoints. It never mutates pipeline state.
type Server struct {
	router chi.Router
	store  QueryStore
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(qs QueryStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: qs, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/jobs", s.listJobs)
	r.Get("/jobs/{job_id}", s.getJob)
	r.Get("/status/summary", s.statusSummary)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, err := intParam(q.Get("skip"), 0)
	if err != nil || skip < 0 {
		writeError(w, http.StatusBadRequest, "skip must be a non-negative integer")
		return
	}
	limit, err := intParam(q.Get("limit"), 100)
	if err != nil || limit < 1 || limit > maxPageSize {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
		return
	}

	platform := crawler.Platform(q.Get("platform"))
	if platform != "" && !platform.Valid() {
		writeError(w, http.StatusBadRequest, "unknown platform")
		return
	}

	jobs, err := s.store.ListJobs(r.Context(), store.JobFilter{
		Keyword:  q.Get("q"),
		Platform: platform,
		Skip:     skip,
		Limit:    limit,
	})
	if err != nil {
		s.logger.Error("list jobs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponses(jobs))
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "job_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "job id must be an integer")
		return
	}
	job, err := s.store.JobByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.logger.Error("get job failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) statusSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.StatusSummary(r.Context())
	if err != nil {
		s.logger.Error("status summary failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	out := make([]statusSummaryRow, 0, len(counts))
	for _, c := range counts {
		out = append(out, statusSummaryRow{
			Platform: string(c.Platform),
			Status:   string(c.Status),
			Count:    c.Count,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type statusSummaryRow struct {
	Platform string `json:"platform"`
	Status   string `json:"status"`
	Count    int64  `json:"count"`
}

type jobResponse struct {
	ID             int64      `json:"id"`
	Platform       string     `json:"source_platform"`
	SourceJobID    string     `json:"source_job_id"`
	URL            string     `json:"url"`
	Status         string     `json:"status"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	JobType        string     `json:"job_type,omitempty"`
	LocationText   string     `json:"location_text,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	SalaryText     string     `json:"salary_text,omitempty"`
	SalaryMin      *int       `json:"salary_min,omitempty"`
	SalaryMax      *int       `json:"salary_max,omitempty"`
	SalaryType     string     `json:"salary_type,omitempty"`
	ExperienceText string     `json:"experience_required_text,omitempty"`
	EducationText  string     `json:"education_required_text,omitempty"`
	CompanyID      string     `json:"company_source_id,omitempty"`
	CompanyName    string     `json:"company_name,omitempty"`
	CompanyURL     string     `json:"company_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toJobResponse(job crawler.Job) jobResponse {
	return jobResponse{
		ID:             job.ID,
		Platform:       string(job.Platform),
		SourceJobID:    job.SourceJobID,
		URL:            job.URL,
		Status:         string(job.Status),
		Title:          job.Title,
		Description:    job.Description,
		JobType:        string(job.JobType),
		LocationText:   job.LocationText,
		PostedAt:       job.PostedAt,
		SalaryText:     job.SalaryText,
		SalaryMin:      job.SalaryMin,
		SalaryMax:      job.SalaryMax,
		SalaryType:     string(job.SalaryType),
		ExperienceText: job.ExperienceText,
		EducationText:  job.EducationText,
		CompanyID:      job.CompanyID,
		CompanyName:    job.CompanyName,
		CompanyURL:     job.CompanyURL,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func toJobResponses(jobs []crawler.Job) []jobResponse {
	out := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}
	return out
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
