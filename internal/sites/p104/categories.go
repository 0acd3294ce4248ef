// Package p104 implements the 104 job bank strategies. Listing, detail and
// taxonomy all ride the platform's public JSON APIs.
package p104

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
)

const categoryURL = "https://static.104.com.tw/category-tool/json/JobCat.json"

type categoryNode struct {
	No       string         `json:"no"`
	Des      string         `json:"des"`
	Children []categoryNode `json:"n"`
}

// CategoryFetcher pulls the taxonomy tree and flattens it.
type CategoryFetcher struct {
	client  *request.Client
	headers map[string]string
}

// NewCategoryFetcher builds the taxonomy fetcher.
func NewCategoryFetcher(client *request.Client, headers map[string]string) *CategoryFetcher {
	return &CategoryFetcher{client: client, headers: headers}
}

// FetchCategories downloads JobCat.json and flattens the tree, recording
// each node's parent id.
func (f *CategoryFetcher) FetchCategories(ctx context.Context) ([]crawler.Category, error) {
	body, err := f.client.Get(ctx, categoryURL, request.Options{Headers: f.headers})
	if err != nil {
		return nil, fmt.Errorf("fetch 104 categories: %w", err)
	}
	var nodes []categoryNode
	if err := json.Unmarshal([]byte(body), &nodes); err != nil {
		return nil, fmt.Errorf("decode 104 categories: %w", err)
	}
	var out []crawler.Category
	flattenCategories(nodes, nil, &out)
	return out, nil
}

func flattenCategories(nodes []categoryNode, parent *string, out *[]crawler.Category) {
	for _, node := range nodes {
		if node.No == "" {
			continue
		}
		id := node.No
		*out = append(*out, crawler.Category{
			Platform:       crawler.Platform104,
			SourceID:       id,
			Name:           node.Des,
			ParentSourceID: parent,
		})
		if len(node.Children) > 0 {
			flattenCategories(node.Children, &id, out)
		}
	}
}
