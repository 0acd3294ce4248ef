// Package yes123 implements the yes123 strategies. The site is a classic
// server-rendered board: listings and details are scraped from Big5 HTML
// pages, and the taxonomy comes from a static JSON file.
package yes123

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
)

const categoryURL = "https://www.yes123.com.tw/json_file/work_mode.json"

type workModeFile struct {
	ListObj []struct {
		Level1Name string `json:"level_1_name"`
		List2      []struct {
			Code       string `json:"code"`
			Level2Name string `json:"level_2_name"`
		} `json:"list_2"`
	} `json:"listObj"`
}

// CategoryFetcher reads the two-level work-mode file. Level-1 nodes have no
// id of their own, so their name doubles as a proxy id.
type CategoryFetcher struct {
	client  *request.Client
	headers map[string]string
}

// NewCategoryFetcher builds the taxonomy fetcher.
func NewCategoryFetcher(client *request.Client, headers map[string]string) *CategoryFetcher {
	return &CategoryFetcher{client: client, headers: headers}
}

// FetchCategories downloads and flattens work_mode.json. The file is served
// with a UTF-8 BOM.
func (f *CategoryFetcher) FetchCategories(ctx context.Context) ([]crawler.Category, error) {
	body, err := f.client.Get(ctx, categoryURL, request.Options{Headers: f.headers})
	if err != nil {
		return nil, fmt.Errorf("fetch yes123 categories: %w", err)
	}
	return parseCategories(body)
}

// parseCategories decodes the work-mode file and flattens its two levels.
func parseCategories(body string) ([]crawler.Category, error) {
	body = strings.TrimPrefix(body, "\ufeff")

	var file workModeFile
	if err := json.Unmarshal([]byte(body), &file); err != nil {
		return nil, fmt.Errorf("decode yes123 categories: %w", err)
	}

	var out []crawler.Category
	for _, level1 := range file.ListObj {
		if level1.Level1Name == "" {
			continue
		}
		proxyID := level1.Level1Name
		out = append(out, crawler.Category{
			Platform: crawler.PlatformYes123,
			SourceID: proxyID,
			Name:     level1.Level1Name,
		})
		for _, level2 := range level1.List2 {
			if level2.Code == "" || level2.Level2Name == "" {
				continue
			}
			parent := proxyID
			out = append(out, crawler.Category{
				Platform:       crawler.PlatformYes123,
				SourceID:       level2.Code,
				Name:           level2.Level2Name,
				ParentSourceID: &parent,
			})
		}
	}
	return out, nil
}
