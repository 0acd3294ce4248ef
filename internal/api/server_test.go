package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/store"
)

type fakeStore struct {
	jobs       []crawler.Job
	jobByID    map[int64]crawler.Job
	counts     []crawler.StatusCount
	lastFilter store.JobFilter
	listErr    error
}

func (f *fakeStore) ListJobs(_ context.Context, filter store.JobFilter) ([]crawler.Job, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.jobs, nil
}

func (f *fakeStore) JobByID(_ context.Context, id int64) (crawler.Job, error) {
	job, ok := f.jobByID[id]
	if !ok {
		return crawler.Job{}, store.ErrNotFound
	}
	return job, nil
}

func (f *fakeStore) StatusSummary(_ context.Context) ([]crawler.StatusCount, error) {
	return f.counts, nil
}

func doRequest(t *testing.T, fs *fakeStore, path string) *httptest.ResponseRecorder {
	t.Helper()

	srv := NewServer(fs, nil)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListJobsPassesFilter(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{jobs: []crawler.Job{{
		ID:       1,
		Platform: crawler.Platform104,
		Title:    "Backend Engineer",
		Status:   crawler.StatusActive,
	}}}

	rec := doRequest(t, fs, "/jobs?q=backend&platform=platform_104&skip=20&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, store.JobFilter{
		Keyword:  "backend",
		Platform: crawler.Platform104,
		Skip:     20,
		Limit:    10,
	}, fs.lastFilter)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	require.Equal(t, "Backend Engineer", body[0]["title"])
}

func TestListJobsDefaultsPagination(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{}
	rec := doRequest(t, fs, "/jobs")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, fs.lastFilter.Skip)
	require.Equal(t, 100, fs.lastFilter.Limit)
}

func TestListJobsRejectsBadParams(t *testing.T) {
	t.Parallel()

	for _, path := range []string{
		"/jobs?limit=0",
		"/jobs?limit=1001",
		"/jobs?skip=-1",
		"/jobs?skip=abc",
		"/jobs?platform=platform_nope",
	} {
		rec := doRequest(t, &fakeStore{}, path)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestListJobsStoreErrorIs500(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{listErr: errors.New("db down")}
	rec := doRequest(t, fs, "/jobs")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetJobByID(t *testing.T) {
	t.Parallel()

	posted := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fs := &fakeStore{jobByID: map[int64]crawler.Job{
		7: {
			ID:          7,
			Platform:    crawler.PlatformCakeresume,
			SourceJobID: "acme-42",
			Title:       "Data Engineer",
			Status:      crawler.StatusActive,
			PostedAt:    &posted,
		},
	}}

	rec := doRequest(t, fs, "/jobs/7")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Data Engineer", body["title"])
	require.Equal(t, "acme-42", body["source_job_id"])
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeStore{}, "/jobs/99")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJobBadID(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeStore{}, "/jobs/not-a-number")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusSummary(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{counts: []crawler.StatusCount{
		{Platform: crawler.Platform104, Status: crawler.CrawlCompleted, Count: 40},
		{Platform: crawler.Platform104, Status: crawler.CrawlPending, Count: 10},
	}}

	rec := doRequest(t, fs, "/status/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []statusSummaryRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	require.Equal(t, "platform_104", body[0].Platform)
	require.Equal(t, int64(40), body[0].Count)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeStore{}, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &fakeStore{}, "/healthz")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
