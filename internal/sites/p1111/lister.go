package p1111

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

const searchURL = "https://www.1111.com.tw/api/v1/search/jobs/"

type searchResponse struct {
	Result struct {
		Hits []crawler.Item `json:"hits"`
	} `json:"result"`
}

// Lister walks the search API per stored category, newest first.
type Lister struct {
	client   *request.Client
	headers  map[string]string
	maxPages int
	load     func(ctx context.Context) ([]crawler.Category, error)
	logger   *zap.Logger
}

// NewLister builds the 1111 listing strategy.
func NewLister(client *request.Client, headers map[string]string, maxPages int, load func(ctx context.Context) ([]crawler.Category, error), logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{
		client:   client,
		headers:  headers,
		maxPages: maxPages,
		load:     load,
		logger:   logger.Named("p1111"),
	}
}

// ListURLs pages through every category. Each hit gets an absolute url field
// derived from its jobId before being yielded; hits without a jobId are
// skipped.
func (l *Lister) ListURLs(ctx context.Context, yield func(crawler.Item) bool) error {
	cats, err := l.load(ctx)
	if err != nil {
		return fmt.Errorf("load 1111 categories: %w", err)
	}
	if len(cats) == 0 {
		l.logger.Warn("no categories stored, skipping url listing")
		return nil
	}

	for _, cat := range cats {
		for page := 1; page <= l.maxPages; page++ {
			// The API mirrors the front end and wants the search path echoed
			// back in a searchUrl parameter.
			searchPath := fmt.Sprintf("/search/job?page=%d&col=da&sort=desc&d0=%s",
				page, url.QueryEscape(cat.SourceID))
			params := url.Values{
				"page":           {strconv.Itoa(page)},
				"sortBy":         {"da"},
				"sortOrder":      {"desc"},
				"jobPositions":   {cat.SourceID},
				"conditionsText": {""},
				"searchUrl":      {searchPath},
			}
			body, err := l.client.Get(ctx, searchURL, request.Options{Headers: l.headers, Params: params, Insecure: true})
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
			if len(res.Result.Hits) == 0 {
				break
			}
			for _, item := range res.Result.Hits {
				jobID := StringID(item["jobId"])
				if jobID == "" {
					l.logger.Warn("search hit without jobId", zap.Any("item", map[string]any(item)))
					continue
				}
				item["url"] = "https://www.1111.com.tw/job/" + jobID
				if !yield(item) {
					return nil
				}
			}
		}
	}
	return nil
}

// StringID renders a JSON id value, which may arrive as a string or a
// number, as a plain decimal string.
func StringID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case int:
		return strconv.Itoa(id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}
