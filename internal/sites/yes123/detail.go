package yes123

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
	"github.com/jobradar/crawler/internal/sites/htmltext"
)

// Fetcher retrieves the detail page HTML.
type Fetcher struct {
	client  *request.Client
	headers map[string]string
}

// NewFetcher builds the yes123 detail fetcher.
func NewFetcher(client *request.Client, headers map[string]string) *Fetcher {
	return &Fetcher{client: client, headers: headers}
}

// FetchDetail downloads the detail page and converts it to UTF-8.
func (f *Fetcher) FetchDetail(ctx context.Context, jobURL string) (string, error) {
	body, err := f.client.Get(ctx, jobURL, request.Options{Headers: f.headers, Insecure: true})
	if err != nil {
		return "", fmt.Errorf("fetch yes123 detail: %w", err)
	}
	return decodeBig5(body), nil
}

// decodeBig5 converts the Big5 pages the site serves. A body that is already
// valid UTF-8 passes through untouched.
func decodeBig5(body string) string {
	if utf8.ValidString(body) {
		return body
	}
	decoded, err := traditionalchinese.Big5.NewDecoder().String(body)
	if err != nil {
		return body
	}
	return decoded
}

// Parser scrapes the labeled rows of the job-explain block.
type Parser struct{}

var (
	companyID  = regexp.MustCompile(`p_id=([\w_]+)`)
	postedDate = regexp.MustCompile(`(\d{4}/\d{1,2}/\d{1,2})`)
)

// ParseDetail requires at least the title and company name tags; everything
// else degrades to empty fields.
func (Parser) ParseDetail(raw, jobURL string, _ crawler.Item) (*crawler.Job, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse yes123 detail html: %w", err)
	}

	title := htmltext.Clean(doc.Find("h1#limit_word_count").First().Text())
	companyTag := doc.Find("div.box_firm_name > a").First()
	companyName := htmltext.Clean(companyTag.Text())
	if title == "" || companyName == "" {
		return nil, errors.New("yes123 detail page has no title or company tag")
	}

	var companySourceID, companyURL string
	if href, ok := companyTag.Attr("href"); ok && href != "" {
		companyURL = baseURL + href
		if m := companyID.FindStringSubmatch(href); m != nil {
			companySourceID = m[1]
		}
	}

	rows := explainRows(doc)

	salaryText := rows.value("薪資待遇")
	salaryMin, salaryMax := parseSalary(salaryText)

	return &crawler.Job{
		Platform:       crawler.PlatformYes123,
		SourceJobID:    JobID(jobURL),
		URL:            jobURL,
		Status:         crawler.StatusActive,
		Title:          title,
		Description:    rows.value("工作內容"),
		JobType:        classifyJobType(rows.value("工作性質")),
		LocationText:   rows.location(),
		PostedAt:       postedAt(doc),
		SalaryText:     salaryText,
		SalaryMin:      salaryMin,
		SalaryMax:      salaryMax,
		SalaryType:     classifySalaryType(salaryText),
		ExperienceText: rows.value("工作經驗"),
		EducationText:  rows.value("學歷要求"),
		CompanyID:      companySourceID,
		CompanyName:    companyName,
		CompanyURL:     companyURL,
	}, nil
}

// JobID extracts the p_id query parameter that identifies a listing.
func JobID(jobURL string) string {
	u, err := url.Parse(jobURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("p_id")
}

// explainRows indexes the labeled li rows of the job-explain block by their
// left-title text.
type labeledRows map[string]*goquery.Selection

func explainRows(doc *goquery.Document) labeledRows {
	rows := labeledRows{}
	doc.Find("div.job_explain ul > li").Each(func(_ int, li *goquery.Selection) {
		key := htmltext.Clean(li.Find("span.left_title").First().Text())
		key = strings.TrimSuffix(key, "：")
		if key != "" {
			rows[key] = li
		}
	})
	return rows
}

// value returns the text after the full-width colon of a labeled row.
func (r labeledRows) value(key string) string {
	li, ok := r[key]
	if !ok {
		return ""
	}
	full := htmltext.Clean(li.Text())
	if _, after, found := strings.Cut(full, "："); found {
		return strings.TrimSpace(after)
	}
	return ""
}

// location prefers the precise map link over the row's plain text.
func (r labeledRows) location() string {
	li, ok := r["工作地點"]
	if !ok {
		return ""
	}
	if text := htmltext.Clean(li.Find("a.companyLocation").First().Text()); text != "" {
		return text
	}
	return r.value("工作地點")
}

func parseSalary(text string) (*int, *int) {
	nums := htmltext.Numbers(text)
	switch {
	case len(nums) == 0:
		return nil, nil
	case len(nums) == 1:
		min := nums[0]
		if strings.Contains(text, "以上") {
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
	case strings.Contains(text, "時薪"):
		return crawler.SalaryHourly
	case strings.Contains(text, "年薪"):
		return crawler.SalaryYearly
	case strings.Contains(text, "日薪"), strings.Contains(text, "論件計酬"):
		return crawler.SalaryByCase
	default:
		return crawler.SalaryNegotiable
	}
}

func classifyJobType(text string) crawler.JobType {
	switch {
	case strings.Contains(text, "全職"):
		return crawler.JobTypeFullTime
	case strings.Contains(text, "兼職"):
		return crawler.JobTypePartTime
	case strings.Contains(text, "實習"):
		return crawler.JobTypeInternship
	case strings.Contains(text, "派遣"):
		return crawler.JobTypeContract
	default:
		return ""
	}
}

func postedAt(doc *goquery.Document) *time.Time {
	heading := htmltext.Clean(doc.Find("div.job_explain h2").First().Text())
	if heading == "" {
		return nil
	}
	if strings.Contains(heading, "今天") {
		t := time.Now().UTC().Truncate(24 * time.Hour)
		return &t
	}
	if m := postedDate.FindStringSubmatch(heading); m != nil {
		if t, err := time.Parse("2006/1/2", m[1]); err == nil {
			return &t
		}
	}
	return nil
}
