package p1111

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

// Fetcher retrieves the server-rendered detail page.
type Fetcher struct {
	client  *request.Client
	headers map[string]string
}

// NewFetcher builds the 1111 detail fetcher.
func NewFetcher(client *request.Client, headers map[string]string) *Fetcher {
	return &Fetcher{client: client, headers: headers}
}

// FetchDetail downloads the detail page HTML.
func (f *Fetcher) FetchDetail(ctx context.Context, jobURL string) (string, error) {
	body, err := f.client.Get(ctx, jobURL, request.Options{Headers: f.headers, Insecure: true})
	if err != nil {
		return "", fmt.Errorf("fetch 1111 detail: %w", err)
	}
	return body, nil
}

// Parser combines the detail HTML with the staged listing hit. The listing
// metadata is authoritative for the job id and company identity; everything
// else is scraped from the page.
type Parser struct{}

// ParseDetail requires staged metadata with a jobId; without it the listing
// and the page cannot be correlated.
func (Parser) ParseDetail(raw, jobURL string, meta crawler.Item) (*crawler.Job, error) {
	jobID := StringID(meta["jobId"])
	if jobID == "" {
		return nil, errors.New("1111 detail requires staged listing metadata with a jobId")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse 1111 detail html: %w", err)
	}

	title := htmltext.Clean(doc.Find("main h1").First().Text())
	if title == "" {
		title = htmltext.Clean(doc.Find("div.job_content_header h1").First().Text())
	}
	if title == "" {
		return nil, errors.New("1111 detail page has no job title")
	}

	companyName, _ := meta["companyName"].(string)
	companyID := StringID(meta["companyId"])
	var companyURL string
	if companyID != "" {
		companyURL = "https://www.1111.com.tw/corp/" + companyID
	}

	locationText := findDetailText(doc, "工作地點")
	if idx := strings.Index(locationText, "地圖"); idx >= 0 {
		locationText = strings.TrimSpace(locationText[:idx])
	}

	salaryText := findDetailText(doc, "工作待遇")
	if idx := strings.Index(salaryText, "查看薪資水平"); idx >= 0 {
		salaryText = strings.TrimSpace(salaryText[:idx])
	}
	salaryMin, salaryMax := parseSalary(salaryText)

	return &crawler.Job{
		Platform:       crawler.Platform1111,
		SourceJobID:    jobID,
		URL:            jobURL,
		Status:         crawler.StatusActive,
		Title:          title,
		Description:    description(doc),
		JobType:        classifyJobType(findDetailText(doc, "工作性質")),
		LocationText:   locationText,
		PostedAt:       postedAt(doc),
		SalaryText:     salaryText,
		SalaryMin:      salaryMin,
		SalaryMax:      salaryMax,
		SalaryType:     classifySalaryType(salaryText),
		ExperienceText: normalizeRequirement(findDetailText(doc, "工作經驗"), "無經驗"),
		EducationText:  normalizeRequirement(findDetailText(doc, "學歷要求"), "不限"),
		CompanyID:      companyID,
		CompanyName:    companyName,
		CompanyURL:     companyURL,
	}, nil
}

var descriptionSelectors = []string{
	".job_description",
	"div.job-content__description",
	"div.job-detail-content",
	"div.job-description-container",
	"div#main-content",
	"div.content",
	"body",
}

func description(doc *goquery.Document) string {
	for _, sel := range descriptionSelectors {
		if text := htmltext.Clean(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// findDetailText locates the value next to a field label, first as the
// sibling of a matching h3, then as the dd following a matching dt.
func findDetailText(doc *goquery.Document, label string) string {
	var out string
	doc.Find("h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), label) {
			return true
		}
		if text := htmltext.Clean(s.Next().Text()); text != "" {
			out = text
			return false
		}
		return true
	})
	if out != "" {
		return out
	}
	doc.Find("dt").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), label) {
			return true
		}
		if text := htmltext.Clean(s.NextFiltered("dd").Text()); text != "" {
			out = text
			return false
		}
		return true
	})
	return out
}

var tenThousand = regexp.MustCompile(`(\d+)\s*萬`)

// parseSalary extracts a range from free text like "月薪 45,000~55,000元" or
// "面議 (經常性薪資達4萬元或以上)". 萬 amounts are expanded before digit
// extraction.
func parseSalary(text string) (*int, *int) {
	if text == "" {
		return nil, nil
	}
	if strings.Contains(text, "達") {
		if m := tenThousand.FindStringSubmatch(text); m != nil {
			n, _ := strconv.Atoi(m[1])
			min := n * 10000
			return &min, nil
		}
	}

	cleaned := strings.ReplaceAll(strings.ReplaceAll(text, ",", ""), "元", "")
	if m := tenThousand.FindStringSubmatch(cleaned); m != nil {
		n, _ := strconv.Atoi(m[1])
		cleaned = strings.Replace(cleaned, m[0], strconv.Itoa(n*10000), 1)
	}

	nums := htmltext.Numbers(cleaned)
	switch {
	case len(nums) == 0:
		return nil, nil
	case len(nums) == 1:
		min := nums[0]
		if strings.Contains(text, "以上") || strings.Contains(text, "起") {
			return &min, nil
		}
		max := min
		return &min, &max
	default:
		min, max := nums[0], nums[1]
		return &min, &max
	}
}

func classifySalaryType(text string) crawler.SalaryType {
	switch {
	case strings.Contains(text, "月薪"):
		return crawler.SalaryMonthly
	case strings.Contains(text, "年薪"):
		return crawler.SalaryYearly
	case strings.Contains(text, "時薪"):
		return crawler.SalaryHourly
	case strings.Contains(text, "日薪"):
		return crawler.SalaryDaily
	case strings.Contains(text, "論件計酬"), strings.Contains(text, "按件計酬"):
		return crawler.SalaryByCase
	default:
		return crawler.SalaryNegotiable
	}
}

func classifyJobType(text string) crawler.JobType {
	switch {
	case strings.Contains(text, "全職"):
		return crawler.JobTypeFullTime
	case strings.Contains(text, "兼職"), strings.Contains(text, "工讀"):
		return crawler.JobTypePartTime
	case strings.Contains(text, "派遣"), strings.Contains(text, "約聘"):
		return crawler.JobTypeContract
	case strings.Contains(text, "實習"):
		return crawler.JobTypeInternship
	default:
		return ""
	}
}

// normalizeRequirement drops placeholder values that mean "no requirement".
func normalizeRequirement(text, alias string) string {
	lower := strings.ToLower(text)
	if lower == "top" || text == "不拘" || text == alias {
		return ""
	}
	return text
}

func postedAt(doc *goquery.Document) *time.Time {
	var out *time.Time
	doc.Find("h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "更新日期") {
			return true
		}
		raw, ok := s.Closest("li").Find("time").Attr("datetime")
		if !ok {
			return true
		}
		for _, layout := range []string{"2006/01/02 15:04:05", "2006/01/02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
				out = &t
				return false
			}
		}
		return true
	})
	return out
}
