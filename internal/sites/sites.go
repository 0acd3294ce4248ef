// Package sites binds platform-specific strategy implementations. Each
// subpackage implements the listing, fetching and parsing contracts for one
// job board; the factory here is the only place that knows which platform
// maps to which implementation.
package sites

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/request"
	"github.com/jobradar/crawler/internal/sites/cakeresume"
	"github.com/jobradar/crawler/internal/sites/p104"
	"github.com/jobradar/crawler/internal/sites/p1111"
	"github.com/jobradar/crawler/internal/sites/yes123"
)

// CategoryLoader supplies the stored taxonomy a lister walks. It is usually
// backed by the repository.
type CategoryLoader func(ctx context.Context) ([]crawler.Category, error)

// Deps carries everything a platform bundle needs at construction time.
type Deps struct {
	Client         *request.Client
	Headers        map[string]string
	MaxPages       int
	LoadCategories CategoryLoader
	Logger         *zap.Logger
}

// Bundle is the full strategy set for one platform. Categories is nil when
// the platform exposes no taxonomy endpoint.
type Bundle struct {
	Lister     crawler.URLLister
	Fetcher    crawler.DetailFetcher
	Parser     crawler.DetailParser
	Categories crawler.CategorySource
}

// Build returns the strategy bundle for a platform.
func Build(platform crawler.Platform, deps Deps) (Bundle, error) {
	if deps.Client == nil {
		return Bundle{}, fmt.Errorf("[%s] http client is required", platform)
	}
	if deps.MaxPages <= 0 {
		deps.MaxPages = 5
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	switch platform {
	case crawler.Platform104:
		return Bundle{
			Lister:     p104.NewLister(deps.Client, deps.Headers, deps.MaxPages, deps.LoadCategories, deps.Logger),
			Fetcher:    p104.NewFetcher(deps.Client, deps.Headers),
			Parser:     p104.Parser{},
			Categories: p104.NewCategoryFetcher(deps.Client, deps.Headers),
		}, nil
	case crawler.Platform1111:
		return Bundle{
			Lister:     p1111.NewLister(deps.Client, deps.Headers, deps.MaxPages, deps.LoadCategories, deps.Logger),
			Fetcher:    p1111.NewFetcher(deps.Client, deps.Headers),
			Parser:     p1111.Parser{},
			Categories: p1111.NewCategoryFetcher(deps.Client, deps.Headers),
		}, nil
	case crawler.PlatformCakeresume:
		return Bundle{
			Lister:     cakeresume.NewLister(deps.Client, deps.Headers, deps.MaxPages, deps.LoadCategories, deps.Logger),
			Fetcher:    cakeresume.NewFetcher(deps.Client, deps.Headers),
			Parser:     cakeresume.Parser{},
			Categories: cakeresume.NewCategoryFetcher(deps.Client, deps.Headers),
		}, nil
	case crawler.PlatformYes123:
		return Bundle{
			Lister:     yes123.NewLister(deps.Headers, deps.MaxPages, deps.LoadCategories, deps.Logger),
			Fetcher:    yes123.NewFetcher(deps.Client, deps.Headers),
			Parser:     yes123.Parser{},
			Categories: yes123.NewCategoryFetcher(deps.Client, deps.Headers),
		}, nil
	default:
		return Bundle{}, fmt.Errorf("unknown platform %q", platform)
	}
}
