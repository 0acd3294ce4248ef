package p104

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
	"github.com/jobradar/crawler/internal/sites/htmltext"
)

const contentAPI = "https://www.104.com.tw/job/ajax/content/"

// Fetcher retrieves a listing's detail JSON from the content API.
type Fetcher struct {
	client  *request.Client
	headers map[string]string
}

// NewFetcher builds the 104 detail fetcher.
func NewFetcher(client *request.Client, headers map[string]string) *Fetcher {
	return &Fetcher{client: client, headers: headers}
}

// FetchDetail derives the job id from the URL and calls the content API.
// The API requires the original page as Referer.
func (f *Fetcher) FetchDetail(ctx context.Context, jobURL string) (string, error) {
	headers := make(map[string]string, len(f.headers)+1)
	for k, v := range f.headers {
		headers[k] = v
	}
	headers["Referer"] = jobURL

	body, err := f.client.Get(ctx, contentAPI+JobID(jobURL), request.Options{Headers: headers})
	if err != nil {
		return "", fmt.Errorf("fetch 104 detail: %w", err)
	}
	return body, nil
}

// JobID extracts the platform job id: the last path segment, query stripped.
func JobID(jobURL string) string {
	id := jobURL
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	if idx := strings.Index(id, "?"); idx >= 0 {
		id = id[:idx]
	}
	return id
}

type detailResponse struct {
	Data *struct {
		Header *struct {
			JobName    string `json:"jobName"`
			AppearDate string `json:"appearDate"`
			CustNo     string `json:"custNo"`
			CustName   string `json:"custName"`
			CustURL    string `json:"custUrl"`
		} `json:"header"`
		JobDetail *struct {
			JobDescription string `json:"jobDescription"`
			JobType        int    `json:"jobType"`
			AddressRegion  string `json:"addressRegion"`
			AddressDetail  string `json:"addressDetail"`
			Salary         string `json:"salary"`
			SalaryMin      *int   `json:"salaryMin"`
			SalaryMax      *int   `json:"salaryMax"`
			SalaryType     int    `json:"salaryType"`
		} `json:"jobDetail"`
		Condition *struct {
			WorkExp string `json:"workExp"`
			Edu     string `json:"edu"`
		} `json:"condition"`
	} `json:"data"`
}

// Parser maps the content-API JSON onto the normalized job model.
type Parser struct{}

var jobTypeByCode = map[int]crawler.JobType{
	1: crawler.JobTypeFullTime,
	2: crawler.JobTypePartTime,
	3: crawler.JobTypeContract,
}

// ParseDetail decodes the detail JSON. The header, jobDetail and condition
// blocks plus the job name are mandatory.
func (Parser) ParseDetail(raw, jobURL string, _ crawler.Item) (*crawler.Job, error) {
	var res detailResponse
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("decode 104 detail: %w", err)
	}
	if res.Data == nil {
		return nil, errors.New("104 detail response has no data block")
	}
	h, jd, c := res.Data.Header, res.Data.JobDetail, res.Data.Condition
	if h == nil || jd == nil || c == nil || h.JobName == "" {
		return nil, errors.New("104 detail response is missing header, jobDetail, condition or jobName")
	}

	salaryType := crawler.SalaryNegotiable
	switch jd.SalaryType {
	case 50:
		salaryType = crawler.SalaryMonthly
	case 30:
		salaryType = crawler.SalaryHourly
	}

	var postedAt *time.Time
	if h.AppearDate != "" {
		if t, err := time.Parse("2006/01/02", h.AppearDate); err == nil {
			postedAt = &t
		}
	}

	return &crawler.Job{
		Platform:       crawler.Platform104,
		SourceJobID:    JobID(jobURL),
		URL:            jobURL,
		Status:         crawler.StatusActive,
		Title:          h.JobName,
		Description:    htmltext.Clean(jd.JobDescription),
		JobType:        jobTypeByCode[jd.JobType],
		LocationText:   strings.TrimSpace(jd.AddressRegion + jd.AddressDetail),
		PostedAt:       postedAt,
		SalaryText:     jd.Salary,
		SalaryMin:      jd.SalaryMin,
		SalaryMax:      jd.SalaryMax,
		SalaryType:     salaryType,
		ExperienceText: c.WorkExp,
		EducationText:  c.Edu,
		CompanyID:      h.CustNo,
		CompanyName:    h.CustName,
		CompanyURL:     h.CustURL,
	}, nil
}
