package pricing

import (
	"fmt"
	"strings"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

// buildContext concatenates the surviving results into the text block sent to
// the extraction stage. Each result is a Title/Snippet/Link record separated
// by a blank line. charLimit bounds prompt size; <= 0 means unlimited.
func buildContext(results []model.SearchResult, charLimit int) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("Title: %s\nSnippet: %s\nLink: %s", r.Title, r.Snippet, r.URL))
	}
	text := strings.Join(parts, "\n\n")

	if charLimit > 0 {
		runes := []rune(text)
		if len(runes) > charLimit {
			text = string(runes[:charLimit])
		}
	}
	return text
}

// primarySource returns the first non-empty result URL, used as the
// source attribution for the extracted price.
func primarySource(results []model.SearchResult) string {
	for _, r := range results {
		if r.URL != "" {
			return r.URL
		}
	}
	return ""
}
