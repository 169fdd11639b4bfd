package pricing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

func TestBuildContext(t *testing.T) {
	results := []model.SearchResult{
		{Title: "A", Snippet: "first snippet", URL: "https://a.example"},
		{Title: "B", Snippet: "second snippet", URL: "https://b.example"},
	}

	text := buildContext(results, 0)
	assert.Contains(t, text, "Title: A\nSnippet: first snippet\nLink: https://a.example")
	assert.Contains(t, text, "Title: B")
	// Records separated by a blank line.
	assert.Equal(t, 2, len(strings.Split(text, "\n\n")))
}

func TestBuildContext_CharCeiling(t *testing.T) {
	results := []model.SearchResult{
		{Title: "A", Snippet: strings.Repeat("ü", 500), URL: "https://a.example"},
	}

	text := buildContext(results, 100)
	assert.Equal(t, 100, len([]rune(text)))
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "", buildContext(nil, 4000))
}

func TestPrimarySource(t *testing.T) {
	results := []model.SearchResult{
		{Title: "no url"},
		{Title: "has url", URL: "https://www.netflix.com/tr/plans"},
	}
	assert.Equal(t, "https://www.netflix.com/tr/plans", primarySource(results))
	assert.Equal(t, "", primarySource(nil))
}
