// Package p1111 implements the 1111 job bank strategies. Listings come from
// the search API, details from server-rendered HTML; the parser stitches both
// together. The site's TLS setup requires skipping certificate verification.
package p1111

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
)

const categoryURL = "https://www.1111.com.tw/api/v1/codeCategories/"

type categoryResponse struct {
	JobPosition []struct {
		Code       string `json:"code"`
		Name       string `json:"name"`
		ParentCode string `json:"parentCode"`
	} `json:"jobPosition"`
}

// CategoryFetcher pulls the jobPosition code table.
type CategoryFetcher struct {
	client  *request.Client
	headers map[string]string
}

// NewCategoryFetcher builds the taxonomy fetcher.
func NewCategoryFetcher(client *request.Client, headers map[string]string) *CategoryFetcher {
	return &CategoryFetcher{client: client, headers: headers}
}

// FetchCategories downloads the code table. A parentCode of "0" means the
// node is a root.
func (f *CategoryFetcher) FetchCategories(ctx context.Context) ([]crawler.Category, error) {
	body, err := f.client.Get(ctx, categoryURL, request.Options{Headers: f.headers, Insecure: true})
	if err != nil {
		return nil, fmt.Errorf("fetch 1111 categories: %w", err)
	}
	var res categoryResponse
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, fmt.Errorf("decode 1111 categories: %w", err)
	}

	var out []crawler.Category
	for _, item := range res.JobPosition {
		if item.Code == "" || item.Name == "" {
			continue
		}
		var parent *string
		if item.ParentCode != "" && item.ParentCode != "0" {
			p := item.ParentCode
			parent = &p
		}
		out = append(out, crawler.Category{
			Platform:       crawler.Platform1111,
			SourceID:       item.Code,
			Name:           item.Name,
			ParentSourceID: parent,
		})
	}
	return out, nil
}
