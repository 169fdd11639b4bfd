package pricing

import (
	"context"
	"sync/atomic"

	"github.com/subtrack-labs/pricewatch/internal/config"
	"github.com/subtrack-labs/pricewatch/pkg/llm"
	"github.com/subtrack-labs/pricewatch/pkg/websearch"
)

// fakeSearch is a call-counting websearch.Client stub.
type fakeSearch struct {
	results []websearch.Result
	err     error
	calls   atomic.Int64
}

func (f *fakeSearch) Search(_ context.Context, _ string, _ websearch.SearchOptions) ([]websearch.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeLLM is a call-counting llm.Client stub.
type fakeLLM struct {
	text  string
	err   error
	calls atomic.Int64
}

func (f *fakeLLM) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Search: config.SearchConfig{
			MaxResults: 6,
			Locale:     "tr-TR",
		},
		LLM: config.LLMConfig{
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 64,
		},
		Pricing: config.PricingConfig{
			Currency:         "TRY",
			ContextCharLimit: 4000,
			StageTimeoutSecs: 5,
		},
	}
}

// netflixResults is a plausible ranked result set with one official hit.
func netflixResults() []websearch.Result {
	return []websearch.Result{
		{
			Title:       "Netflix planları ve fiyatları",
			Snippet:     "Premium plan aylık 229,99 TL",
			Link:        "https://www.netflix.com/tr/plans",
			DisplayLink: "www.netflix.com",
		},
		{
			Title:       "Netflix zam haberi",
			Snippet:     "Netflix fiyatlarına zam geldi",
			Link:        "https://www.example-news.com/netflix-zam",
			DisplayLink: "www.example-news.com",
		},
	}
}
