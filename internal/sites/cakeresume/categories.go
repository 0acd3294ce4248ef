// Package cakeresume implements the Cakeresume strategies. The site is a
// Next.js app, so both the taxonomy and the job details live in the
// __NEXT_DATA__ payload embedded in server-rendered pages.
package cakeresume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
)

const (
	baseURL = "https://www.cakeresume.com"
	jobsURL = baseURL + "/jobs"

	groupPrefix      = "profession_groups."
	professionPrefix = "professions."
)

// CategoryFetcher extracts the profession taxonomy from the jobs page's
// zh-TW translation table.
type CategoryFetcher struct {
	client  *request.Client
	headers map[string]string
}

// NewCategoryFetcher builds the taxonomy fetcher.
func NewCategoryFetcher(client *request.Client, headers map[string]string) *CategoryFetcher {
	return &CategoryFetcher{client: client, headers: headers}
}

// FetchCategories downloads the jobs page and flattens the two-level
// profession tree. Sub-professions whose prefix matches no group are
// dropped.
func (f *CategoryFetcher) FetchCategories(ctx context.Context) ([]crawler.Category, error) {
	body, err := f.client.Get(ctx, jobsURL, request.Options{Headers: f.headers})
	if err != nil {
		return nil, fmt.Errorf("fetch cakeresume jobs page: %w", err)
	}
	data, err := NextData(body)
	if err != nil {
		return nil, err
	}

	professions, ok := dig(data, "props", "pageProps", "_nextI18Next", "initialI18nStore", "zh-TW", "profession").(map[string]any)
	if !ok {
		return nil, errors.New("cakeresume __NEXT_DATA__ has no zh-TW profession table")
	}
	return flattenProfessions(professions), nil
}

// flattenProfessions turns the translation table's profession_groups.* and
// professions.* keys into a two-level taxonomy.
func flattenProfessions(professions map[string]any) []crawler.Category {
	var out []crawler.Category
	groups := map[string]struct{}{}
	for key, value := range professions {
		name, _ := value.(string)
		if !strings.HasPrefix(key, groupPrefix) || name == "" {
			continue
		}
		id := strings.TrimPrefix(key, groupPrefix)
		groups[id] = struct{}{}
		out = append(out, crawler.Category{
			Platform: crawler.PlatformCakeresume,
			SourceID: id,
			Name:     name,
		})
	}
	for key, value := range professions {
		name, _ := value.(string)
		if !strings.HasPrefix(key, professionPrefix) || name == "" {
			continue
		}
		id := strings.TrimPrefix(key, professionPrefix)
		parent, _, found := strings.Cut(id, "_")
		if !found {
			continue
		}
		if _, ok := groups[parent]; !ok {
			continue
		}
		p := parent
		out = append(out, crawler.Category{
			Platform:       crawler.PlatformCakeresume,
			SourceID:       id,
			Name:           name,
			ParentSourceID: &p,
		})
	}
	return out
}

// NextData pulls and decodes the __NEXT_DATA__ script payload from a page.
func NextData(html string) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse cakeresume html: %w", err)
	}
	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil, errors.New("page has no __NEXT_DATA__ script tag")
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decode __NEXT_DATA__: %w", err)
	}
	return data, nil
}

// dig walks nested JSON objects, returning nil when any key is absent.
func dig(data map[string]any, keys ...string) any {
	var cur any = data
	for _, key := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}
