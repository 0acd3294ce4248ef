package p104

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
)

const searchURL = "https://www.104.com.tw/jobs/search/list"

type searchResponse struct {
	Data struct {
		List []crawler.Item `json:"list"`
	} `json:"data"`
}

// Lister walks the search API per stored category, newest listings first.
type Lister struct {
	client   *request.Client
	headers  map[string]string
	maxPages int
	load     func(ctx context.Context) ([]crawler.Category, error)
	logger   *zap.Logger
}

// NewLister builds the 104 listing strategy.
func NewLister(client *request.Client, headers map[string]string, maxPages int, load func(ctx context.Context) ([]crawler.Category, error), logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{
		client:   client,
		headers:  headers,
		maxPages: maxPages,
		load:     load,
		logger:   logger.Named("p104"),
	}
}

// ListURLs pages through every category until a page comes back empty. A
// failed page ends that category but not the whole listing.
func (l *Lister) ListURLs(ctx context.Context, yield func(crawler.Item) bool) error {
	cats, err := l.load(ctx)
	if err != nil {
		return fmt.Errorf("load 104 categories: %w", err)
	}
	if len(cats) == 0 {
		l.logger.Warn("no categories stored, skipping url listing")
		return nil
	}

	for _, cat := range cats {
		for page := 1; page <= l.maxPages; page++ {
			params := url.Values{
				"ro":     {"0"},
				"jobCat": {cat.SourceID},
				"order":  {"16"},
				"page":   {strconv.Itoa(page)},
				"isnew":  {"30"},
			}
			body, err := l.client.Get(ctx, searchURL, request.Options{Headers: l.headers, Params: params})
			if err != nil {
				l.logger.Error("search page failed",
					zap.String("category", cat.SourceID), zap.Int("page", page), zap.Error(err))
				break
			}
			var res searchResponse
			if err := json.Unmarshal([]byte(body), &res); err != nil {
				l.logger.Error("decode search page failed",
					zap.String("category", cat.SourceID), zap.Int("page", page), zap.Error(err))
				break
			}
			if len(res.Data.List) == 0 {
				break
			}
			for _, item := range res.Data.List {
				absolutizeJobLink(item)
				if !yield(item) {
					return nil
				}
			}
		}
	}
	return nil
}

// absolutizeJobLink rewrites the protocol-relative link.job value in place.
func absolutizeJobLink(item crawler.Item) {
	link, ok := item["link"].(map[string]any)
	if !ok {
		return
	}
	if job, ok := link["job"].(string); ok && job != "" {
		link["job"] = "https:" + job
	}
}
