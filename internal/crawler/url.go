package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoURL is returned when a discovery item carries nothing a URL could be
// derived from.
var ErrNoURL = errors.New("no derivable url in item")

// platformBase maps a platform to the base address its relative listing
// paths are joined against. KeepQuery marks the one platform whose relative
// paths embed query parameters that must survive derivation (yes123 job
// pages are addressed as job.asp?p_id=...).
type platformBase struct {
	Base      string
	KeepQuery bool
}

var platformBases = map[Platform]platformBase{
	PlatformCakeresume: {Base: "https://www.cakeresume.com"},
	PlatformYes123:     {Base: "https://www.yes123.com.tw/wk_index/", KeepQuery: true},
}

// DeriveURL extracts an absolute, normalized URL from a raw discovery item.
// Absolute candidates get their query string stripped; relative paths are
// joined against the platform's base address first.
func DeriveURL(platform Platform, item Item) (string, error) {
	raw := candidateURL(item)
	if raw == "" {
		return "", ErrNoURL
	}

	if strings.HasPrefix(raw, "http") {
		return StripQuery(raw)
	}

	base, ok := platformBases[platform]
	if !ok {
		return "", fmt.Errorf("no base url registered for %s: %w", platform, ErrNoURL)
	}
	baseU, err := url.Parse(base.Base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	relU, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse relative path %q: %w", raw, err)
	}
	full := baseU.ResolveReference(relU)
	if base.KeepQuery {
		return full.String(), nil
	}
	full.RawQuery = ""
	return full.String(), nil
}

// candidateURL pulls the first URL-like field out of an item. Platforms use
// "url", a nested "link.job", or "href".
func candidateURL(item Item) string {
	if s, ok := item["url"].(string); ok && s != "" {
		return s
	}
	if link, ok := item["link"].(map[string]any); ok {
		if s, ok := link["job"].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := item["href"].(string); ok && s != "" {
		return s
	}
	return ""
}

// StripQuery removes the query string from an absolute URL.
func StripQuery(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	u.RawQuery = ""
	return u.String(), nil
}
