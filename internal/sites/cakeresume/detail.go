package cakeresume

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
	"github.com/jobradar/crawler/internal/sites/htmltext"
)

// Fetcher retrieves the server-rendered job page.
type Fetcher struct {
	client  *request.Client
	headers map[string]string
}

// NewFetcher builds the Cakeresume detail fetcher.
func NewFetcher(client *request.Client, headers map[string]string) *Fetcher {
	return &Fetcher{client: client, headers: headers}
}

// FetchDetail downloads the job page HTML.
func (f *Fetcher) FetchDetail(ctx context.Context, jobURL string) (string, error) {
	body, err := f.client.Get(ctx, jobURL, request.Options{Headers: f.headers})
	if err != nil {
		return "", fmt.Errorf("fetch cakeresume detail: %w", err)
	}
	return body, nil
}

// Parser reads the job object embedded in the page's __NEXT_DATA__ payload.
type Parser struct{}

var (
	jobIDFromURL     = regexp.MustCompile(`jobs/([a-zA-Z0-9_-]+)(?:/?$|\?)`)
	companyFromURL   = regexp.MustCompile(`companies/([a-zA-Z0-9_-]+)/jobs`)
	experienceYears  = regexp.MustCompile(`(\d+)\s*年以上(工作)?經驗`)
	educationKeyword = regexp.MustCompile(`(高中|專科|大學|碩士|博士)`)
)

var jobTypeByName = map[string]crawler.JobType{
	"full_time":  crawler.JobTypeFullTime,
	"part_time":  crawler.JobTypePartTime,
	"contract":   crawler.JobTypeContract,
	"internship": crawler.JobTypeInternship,
	"temporary":  crawler.JobTypeTemporary,
	"freelance":  crawler.JobTypeContract,
}

var salaryTypeByUnit = map[string]crawler.SalaryType{
	"per_month":      crawler.SalaryMonthly,
	"per_year":       crawler.SalaryYearly,
	"per_hour":       crawler.SalaryHourly,
	"per_day":        crawler.SalaryDaily,
	"piece_rate_pay": crawler.SalaryByCase,
}

// ParseDetail extracts props.pageProps.job from the page payload.
func (Parser) ParseDetail(raw, jobURL string, _ crawler.Item) (*crawler.Job, error) {
	data, err := NextData(raw)
	if err != nil {
		return nil, err
	}
	job, ok := dig(data, "props", "pageProps", "job").(map[string]any)
	if !ok {
		return nil, errors.New("cakeresume __NEXT_DATA__ has no job object")
	}

	sourceJobID, _ := job["path"].(string)
	if sourceJobID == "" {
		if m := jobIDFromURL.FindStringSubmatch(jobURL); m != nil {
			sourceJobID = m[1]
		}
	}
	if sourceJobID == "" {
		return nil, fmt.Errorf("cannot determine job id for %s", jobURL)
	}

	description, _ := job["description"].(string)
	if description == "" {
		description, _ = job["description_plain_text"].(string)
	}

	companyID, companyName, companyURL := companyIdentity(job, jobURL)

	salaryMin := intField(job, "salary_min")
	salaryMax := intField(job, "salary_max")
	unit, _ := job["salary_type"].(string)
	salaryType := salaryTypeByUnit[unit]
	currency, _ := job["salary_currency"].(string)

	jobType, _ := job["job_type"].(string)
	requirements, _ := job["requirements_plain_text"].(string)

	return &crawler.Job{
		Platform:       crawler.PlatformCakeresume,
		SourceJobID:    sourceJobID,
		URL:            jobURL,
		Status:         crawler.StatusActive,
		Title:          htmltext.Clean(stringField(job, "title")),
		Description:    htmltext.Clean(description),
		JobType:        jobTypeByName[jobType],
		LocationText:   location(job, raw),
		PostedAt:       contentUpdatedAt(job),
		SalaryText:     salaryText(salaryMin, salaryMax, salaryType, currency),
		SalaryMin:      salaryMin,
		SalaryMax:      salaryMax,
		SalaryType:     salaryType,
		ExperienceText: experienceText(job, requirements),
		EducationText:  educationText(requirements),
		CompanyID:      companyID,
		CompanyName:    htmltext.Clean(companyName),
		CompanyURL:     companyURL,
	}, nil
}

func companyIdentity(job map[string]any, jobURL string) (id, name, pageURL string) {
	for _, key := range []string{"company", "page"} {
		data, ok := job[key].(map[string]any)
		if !ok {
			continue
		}
		name, _ = data["name"].(string)
		if path, _ := data["path"].(string); path != "" {
			id = path
			pageURL = baseURL + "/companies/" + path
		}
		if name != "" || pageURL != "" {
			return id, name, pageURL
		}
	}
	if m := companyFromURL.FindStringSubmatch(jobURL); m != nil {
		return m[1], m[1], baseURL + "/companies/" + m[1]
	}
	return "", "", ""
}

func location(job map[string]any, html string) string {
	if flat, ok := job["flat_location_list_with_locale"].([]any); ok {
		for _, entry := range flat {
			if m, ok := entry.(map[string]any); ok {
				if loc, _ := m["zh-tw"].(string); loc != "" {
					return loc
				}
			}
		}
		if len(flat) > 0 {
			if m, ok := flat[0].(map[string]any); ok {
				if loc, _ := m["en"].(string); loc != "" {
					return loc
				}
			}
		}
	}
	if list, ok := job["location_list"].([]any); ok && len(list) > 0 {
		if loc, _ := list[0].(string); loc != "" {
			return loc
		}
	}
	// Last resort: the rendered sidebar.
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		if text := htmltext.Clean(doc.Find("div.JobDescriptionRightColumn_locationsWrapper__N_fz_ a").First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func contentUpdatedAt(job map[string]any) *time.Time {
	switch raw := job["content_updated_at"].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t
		}
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			t := time.UnixMilli(ms).UTC()
			return &t
		}
	case float64:
		t := time.UnixMilli(int64(raw)).UTC()
		return &t
	}
	return nil
}

func salaryText(min, max *int, salaryType crawler.SalaryType, currency string) string {
	if min == nil || max == nil || salaryType == "" {
		if salaryType == crawler.SalaryNegotiable {
			return "面議"
		}
		return ""
	}
	if *min == 0 && *max == 0 && salaryType == crawler.SalaryNegotiable {
		return "面議"
	}
	var text string
	if *min == *max {
		text = fmt.Sprintf("%s %d", currency, *min)
	} else {
		text = fmt.Sprintf("%s %d~%d", currency, *min, *max)
	}
	switch salaryType {
	case crawler.SalaryMonthly:
		text += " / 月"
	case crawler.SalaryYearly:
		text += " / 年"
	case crawler.SalaryHourly:
		text += " / 時"
	case crawler.SalaryDaily:
		text += " / 日"
	}
	return text
}

func experienceText(job map[string]any, requirements string) string {
	if years, ok := job["min_work_exp_year"].(float64); ok {
		if years == 0 {
			return "不限年資"
		}
		if years > 0 {
			return fmt.Sprintf("需具備 %d 年以上工作經驗", int(years))
		}
	}
	if requirements == "" {
		return ""
	}
	if m := experienceYears.FindStringSubmatch(requirements); m != nil {
		return fmt.Sprintf("需具備 %s 年以上工作經驗", m[1])
	}
	cleaned := []rune(htmltext.Clean(requirements))
	if len(cleaned) > 50 {
		cleaned = cleaned[:50]
	}
	return string(cleaned)
}

func educationText(requirements string) string {
	if m := educationKeyword.FindStringSubmatch(requirements); m != nil {
		return m[1]
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) *int {
	f, ok := m[key].(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}
