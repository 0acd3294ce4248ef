package yes123

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
)

const sampleDetail = `<html><body>
<h1 id="limit_word_count">資料庫管理師</h1>
<div class="box_firm_name"><a href="cp.asp?p_id=co_demo123">示範資訊有限公司</a></div>
<div class="job_explain">
  <h2>更新日期：2025/6/18</h2>
  <ul>
    <li><span class="left_title">工作內容：</span>維護公司資料庫與備援機制</li>
    <li><span class="left_title">工作性質：</span>全職</li>
    <li><span class="left_title">工作地點：</span><a class="companyLocation">台中市西屯區台灣大道三段99號</a></li>
    <li><span class="left_title">薪資待遇：</span>月薪 40,000元至50,000元</li>
    <li><span class="left_title">工作經驗：</span>3年以上</li>
    <li><span class="left_title">學歷要求：</span>專科以上</li>
  </ul>
</div>
</body></html>`

func TestParseDetail(t *testing.T) {
	t.Parallel()

	jobURL := "https://www.yes123.com.tw/wk_index/job.asp?p_id=job_demo456"
	job, err := Parser{}.ParseDetail(sampleDetail, jobURL, nil)
	require.NoError(t, err)

	require.Equal(t, crawler.PlatformYes123, job.Platform)
	require.Equal(t, "job_demo456", job.SourceJobID)
	require.Equal(t, "資料庫管理師", job.Title)
	require.Equal(t, "維護公司資料庫與備援機制", job.Description)
	require.Equal(t, crawler.JobTypeFullTime, job.JobType)
	require.Equal(t, "台中市西屯區台灣大道三段99號", job.LocationText)
	require.Equal(t, "月薪 40,000元至50,000元", job.SalaryText)
	require.Equal(t, crawler.SalaryMonthly, job.SalaryType)
	require.Equal(t, 40000, *job.SalaryMin)
	require.Equal(t, 50000, *job.SalaryMax)
	require.Equal(t, "3年以上", job.ExperienceText)
	require.Equal(t, "專科以上", job.EducationText)
	require.Equal(t, "co_demo123", job.CompanyID)
	require.Equal(t, "示範資訊有限公司", job.CompanyName)
	require.Equal(t, "https://www.yes123.com.tw/wk_index/cp.asp?p_id=co_demo123", job.CompanyURL)
	require.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), *job.PostedAt)
}

func TestFetchDetailDecodesBig5(t *testing.T) {
	t.Parallel()

	encoded, err := traditionalchinese.Big5.NewEncoder().String(sampleDetail)
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=big5")
		_, _ = io.WriteString(w, encoded)
	}))
	defer srv.Close()

	f := NewFetcher(request.NewClient(request.Config{}, nil), nil)
	body, err := f.FetchDetail(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, body, "資料庫管理師")

	job, err := Parser{}.ParseDetail(body, "https://www.yes123.com.tw/wk_index/job.asp?p_id=job_demo456", nil)
	require.NoError(t, err)
	require.Equal(t, "月薪 40,000元至50,000元", job.SalaryText)
	require.Equal(t, "維護公司資料庫與備援機制", job.Description)
}

func TestFetchDetailKeepsUTF8(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, sampleDetail)
	}))
	defer srv.Close()

	f := NewFetcher(request.NewClient(request.Config{}, nil), nil)
	body, err := f.FetchDetail(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, sampleDetail, body)
}

func TestParseDetailRequiresTitleAndCompany(t *testing.T) {
	t.Parallel()

	for name, raw := range map[string]string{
		"no title":   `<html><body><div class="box_firm_name"><a>某公司</a></div></body></html>`,
		"no company": `<html><body><h1 id="limit_word_count">某職缺</h1></body></html>`,
		"empty page": `<html><body></body></html>`,
	} {
		_, err := Parser{}.ParseDetail(raw, "https://www.yes123.com.tw/wk_index/job.asp?p_id=x", nil)
		require.Error(t, err, name)
	}
}

func TestParseDetailPostedToday(t *testing.T) {
	t.Parallel()

	raw := `<html><body>
<h1 id="limit_word_count">外場人員</h1>
<div class="box_firm_name"><a href="cp.asp?p_id=co_x">餐飲公司</a></div>
<div class="job_explain"><h2>更新日期：今天</h2><ul></ul></div>
</body></html>`

	job, err := Parser{}.ParseDetail(raw, "https://www.yes123.com.tw/wk_index/job.asp?p_id=y", nil)
	require.NoError(t, err)
	require.NotNil(t, job.PostedAt)
	require.Equal(t, time.Now().UTC().Truncate(24*time.Hour), *job.PostedAt)
}

func TestJobID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "job_demo456", JobID("https://www.yes123.com.tw/wk_index/job.asp?p_id=job_demo456&mode=1"))
	require.Equal(t, "", JobID("https://www.yes123.com.tw/wk_index/job.asp"))
}

func TestParseSalary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		min  *int
		max  *int
	}{
		{"月薪 40,000元至50,000元", intp(40000), intp(50000)},
		{"時薪 190元以上", intp(190), nil},
		{"月薪 32,000元", intp(32000), intp(32000)},
		{"面議", nil, nil},
		{"", nil, nil},
	}
	for _, tc := range cases {
		min, max := parseSalary(tc.text)
		require.Equal(t, tc.min, min, tc.text)
		require.Equal(t, tc.max, max, tc.text)
	}
}

func TestClassifySalaryType(t *testing.T) {
	t.Parallel()

	require.Equal(t, crawler.SalaryMonthly, classifySalaryType("月薪 40,000元"))
	require.Equal(t, crawler.SalaryHourly, classifySalaryType("時薪 190元"))
	require.Equal(t, crawler.SalaryYearly, classifySalaryType("年薪 100萬元"))
	require.Equal(t, crawler.SalaryByCase, classifySalaryType("論件計酬"))
	require.Equal(t, crawler.SalaryNegotiable, classifySalaryType("面議"))
}

func intp(n int) *int { return &n }
