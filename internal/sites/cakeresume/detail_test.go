package cakeresume

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobradar/crawler/internal/crawler"
)

func pageWithNextData(t *testing.T, payload map[string]any) string {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return fmt.Sprintf(
		`<html><body><div id="__next"></div><script id="__NEXT_DATA__" type="application/json">%s</script></body></html>`,
		data,
	)
}

func sampleJobPayload(job map[string]any) map[string]any {
	return map[string]any{
		"props": map[string]any{
			"pageProps": map[string]any{"job": job},
		},
	}
}

func TestParseDetail(t *testing.T) {
	t.Parallel()

	raw := pageWithNextData(t, sampleJobPayload(map[string]any{
		"path":               "senior-backend-engineer",
		"title":              "Senior Backend Engineer",
		"description":        "<p>Build and scale our APIs</p>",
		"job_type":           "full_time",
		"salary_min":         float64(1200000),
		"salary_max":         float64(1800000),
		"salary_type":        "per_year",
		"salary_currency":    "TWD",
		"content_updated_at": "2025-07-01T09:00:02Z",
		"min_work_exp_year":  float64(3),
		"company": map[string]any{
			"name": "Acme Inc.",
			"path": "acme",
		},
		"flat_location_list_with_locale": []any{
			map[string]any{"zh-tw": "台北市", "en": "Taipei"},
		},
	}))

	job, err := Parser{}.ParseDetail(raw, "https://www.cakeresume.com/companies/acme/jobs/senior-backend-engineer", nil)
	require.NoError(t, err)

	require.Equal(t, crawler.PlatformCakeresume, job.Platform)
	require.Equal(t, "senior-backend-engineer", job.SourceJobID)
	require.Equal(t, "Senior Backend Engineer", job.Title)
	require.Equal(t, "Build and scale our APIs", job.Description)
	require.Equal(t, crawler.JobTypeFullTime, job.JobType)
	require.Equal(t, "台北市", job.LocationText)
	require.Equal(t, 1200000, *job.SalaryMin)
	require.Equal(t, 1800000, *job.SalaryMax)
	require.Equal(t, crawler.SalaryYearly, job.SalaryType)
	require.Equal(t, "TWD 1200000~1800000 / 年", job.SalaryText)
	require.Equal(t, "需具備 3 年以上工作經驗", job.ExperienceText)
	require.Equal(t, "acme", job.CompanyID)
	require.Equal(t, "Acme Inc.", job.CompanyName)
	require.Equal(t, "https://www.cakeresume.com/companies/acme", job.CompanyURL)
	require.Equal(t, time.Date(2025, 7, 1, 9, 0, 2, 0, time.UTC), *job.PostedAt)
}

func TestParseDetailFallsBackToURLForIdentity(t *testing.T) {
	t.Parallel()

	raw := pageWithNextData(t, sampleJobPayload(map[string]any{
		"title": "Designer",
	}))

	job, err := Parser{}.ParseDetail(raw, "https://www.cakeresume.com/companies/acme/jobs/designer-42", nil)
	require.NoError(t, err)
	require.Equal(t, "designer-42", job.SourceJobID)
	require.Equal(t, "acme", job.CompanyID)
	require.Equal(t, "https://www.cakeresume.com/companies/acme", job.CompanyURL)
}

func TestParseDetailFreelanceMapsToContract(t *testing.T) {
	t.Parallel()

	raw := pageWithNextData(t, sampleJobPayload(map[string]any{
		"path":     "freelance-writer",
		"title":    "Writer",
		"job_type": "freelance",
	}))

	job, err := Parser{}.ParseDetail(raw, "https://www.cakeresume.com/companies/acme/jobs/freelance-writer", nil)
	require.NoError(t, err)
	require.Equal(t, crawler.JobTypeContract, job.JobType)
}

func TestParseDetailMissingJobObject(t *testing.T) {
	t.Parallel()

	raw := pageWithNextData(t, map[string]any{"props": map[string]any{"pageProps": map[string]any{}}})
	_, err := Parser{}.ParseDetail(raw, "https://www.cakeresume.com/companies/acme/jobs/x", nil)
	require.Error(t, err)
}

func TestParseDetailMissingNextData(t *testing.T) {
	t.Parallel()

	_, err := Parser{}.ParseDetail("<html><body>nope</body></html>",
		"https://www.cakeresume.com/companies/acme/jobs/x", nil)
	require.Error(t, err)
}

func TestNextDataExtractsPayload(t *testing.T) {
	t.Parallel()

	raw := pageWithNextData(t, map[string]any{"buildId": "abc"})
	data, err := NextData(raw)
	require.NoError(t, err)
	require.Equal(t, "abc", data["buildId"])
}
