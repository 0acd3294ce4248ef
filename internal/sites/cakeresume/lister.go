package cakeresume

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
)

const jobLinkSelector = "a.JobSearchItem_jobTitle__bu6yO"

// Lister scrapes the per-category listing pages. There is no public search
// API; the infinite scroll is simulated with a page parameter.
type Lister struct {
	client   *request.Client
	headers  map[string]string
	maxPages int
	load     func(ctx context.Context) ([]crawler.Category, error)
	logger   *zap.Logger
}

// NewLister builds the Cakeresume listing strategy.
func NewLister(client *request.Client, headers map[string]string, maxPages int, load func(ctx context.Context) ([]crawler.Category, error), logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{
		client:   client,
		headers:  headers,
		maxPages: maxPages,
		load:     load,
		logger:   logger.Named("cakeresume"),
	}
}

// ListURLs walks the sub-categories only; group nodes have no listing page.
// Each yielded item carries the relative job href.
func (l *Lister) ListURLs(ctx context.Context, yield func(crawler.Item) bool) error {
	cats, err := l.load(ctx)
	if err != nil {
		return fmt.Errorf("load cakeresume categories: %w", err)
	}
	var subcats []crawler.Category
	for _, cat := range cats {
		if cat.ParentSourceID != nil {
			subcats = append(subcats, cat)
		}
	}
	if len(subcats) == 0 {
		l.logger.Warn("no sub-categories stored, skipping url listing")
		return nil
	}

	for _, cat := range subcats {
		target := fmt.Sprintf("%s/jobs/categories/%s", baseURL, cat.SourceID)
		for page := 1; page <= l.maxPages; page++ {
			params := url.Values{"page": {strconv.Itoa(page)}}
			body, err := l.client.Get(ctx, target, request.Options{Headers: l.headers, Params: params})
			if err != nil {
				l.logger.Error("listing page failed",
					zap.String("category", cat.SourceID), zap.Int("page", page), zap.Error(err))
				break
			}
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
			if err != nil {
				l.logger.Error("parse listing page failed",
					zap.String("category", cat.SourceID), zap.Int("page", page), zap.Error(err))
				break
			}
			links := doc.Find(jobLinkSelector)
			if links.Length() == 0 {
				break
			}
			stop := false
			links.EachWithBreak(func(_ int, s *goquery.Selection) bool {
				href, ok := s.Attr("href")
				if !ok || href == "" {
					return true
				}
				if !yield(crawler.Item{"href": href}) {
					stop = true
					return false
				}
				return true
			})
			if stop {
				return nil
			}
		}
	}
	return nil
}
