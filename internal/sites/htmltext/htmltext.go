// Package htmltext has small text helpers shared by the site parsers.
package htmltext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var digits = regexp.MustCompile(`\d+`)

// Clean strips HTML tags and collapses all whitespace runs to single spaces.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<>") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// Numbers extracts every integer from s, ignoring thousand separators.
func Numbers(s string) []int {
	cleaned := strings.ReplaceAll(s, ",", "")
	var out []int
	for _, m := range digits.FindAllString(cleaned, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
