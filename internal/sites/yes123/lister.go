package yes123

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
)

const (
	baseURL          = "https://www.yes123.com.tw/wk_index/"
	jobLinkSelector  = `a[href^="job.asp?p_id="]`
	listingsPerPage  = 20
	collectorTimeout = 20 * time.Second
)

// Lister scrapes the listing pages with a colly collector. The pages are
// Big5-encoded, so charset detection stays on.
type Lister struct {
	headers  map[string]string
	maxPages int
	load     func(ctx context.Context) ([]crawler.Category, error)
	logger   *zap.Logger
}

// NewLister builds the yes123 listing strategy.
func NewLister(headers map[string]string, maxPages int, load func(ctx context.Context) ([]crawler.Category, error), logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{
		headers:  headers,
		maxPages: maxPages,
		load:     load,
		logger:   logger.Named("yes123"),
	}
}

// ListURLs walks the per-category listing pages; with no stored categories
// it falls back to the sitewide overview page. Only level-2 categories carry
// a usable work-mode code.
func (l *Lister) ListURLs(ctx context.Context, yield func(crawler.Item) bool) error {
	cats, err := l.load(ctx)
	if err != nil {
		return fmt.Errorf("load yes123 categories: %w", err)
	}

	var usable []crawler.Category
	for _, cat := range cats {
		if cat.ParentSourceID != nil {
			usable = append(usable, cat)
		}
	}

	if len(usable) == 0 {
		l.logger.Warn("no categories stored, falling back to the overview page")
		return l.walkPages(ctx, baseURL+"job.asp", url.Values{}, yield)
	}
	for _, cat := range usable {
		params := url.Values{
			"find_work_mode1": {cat.SourceID},
			"order_by":        {"m_date"},
			"order_ascend":    {"desc"},
		}
		if err := l.walkPages(ctx, baseURL+"joblist.asp", params, yield); err != nil {
			return err
		}
	}
	return nil
}

// walkPages visits listing pages until one yields no job links.
func (l *Lister) walkPages(ctx context.Context, target string, params url.Values, yield func(crawler.Item) bool) error {
	collector := l.newCollector()

	var (
		hrefs   []string
		stopped bool
	)
	collector.OnHTML(jobLinkSelector, func(e *colly.HTMLElement) {
		if href := e.Attr("href"); href != "" {
			hrefs = append(hrefs, href)
		}
	})

	for page := 1; page <= l.maxPages; page++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if page > 1 {
			params.Set("strrec", strconv.Itoa((page-1)*listingsPerPage))
		}
		pageURL := target
		if encoded := params.Encode(); encoded != "" {
			pageURL += "?" + encoded
		}

		hrefs = hrefs[:0]
		if err := collector.Visit(pageURL); err != nil {
			l.logger.Error("listing page failed", zap.String("url", pageURL), zap.Error(err))
			break
		}
		if len(hrefs) == 0 {
			break
		}
		for _, href := range hrefs {
			if !yield(crawler.Item{"href": href}) {
				stopped = true
				break
			}
		}
		if stopped {
			break
		}
	}
	return nil
}

func (l *Lister) newCollector() *colly.Collector {
	collector := colly.NewCollector(colly.AllowURLRevisit())
	collector.DetectCharset = true
	collector.SetRequestTimeout(collectorTimeout)
	collector.WithTransport(&http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- the site serves a broken chain
	})
	collector.OnRequest(func(r *colly.Request) {
		for key, value := range l.headers {
			r.Headers.Set(key, value)
		}
	})
	return collector
}
