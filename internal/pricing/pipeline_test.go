package pricing

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrack-labs/pricewatch/internal/model"
	"github.com/subtrack-labs/pricewatch/pkg/websearch"
)

func TestDiscover_HappyPath(t *testing.T) {
	search := &fakeSearch{results: netflixResults()}
	extractor := &fakeLLM{text: "229.99"}
	p := New(testConfig(), search, extractor, nil)

	out := p.Discover(context.Background(), model.PriceQuery{ServiceName: "Netflix", PlanName: "Premium"})

	require.NotNil(t, out.Amount)
	assert.Equal(t, "229.99", out.Amount.String())
	assert.Equal(t, model.ConfidenceHigh, out.Confidence)
	assert.Equal(t, "TRY", out.Currency)
	assert.Equal(t, "https://www.netflix.com/tr/plans", out.SourceURL)
	assert.Equal(t, StagePriced, out.Stage)
	assert.Equal(t, int64(1), search.calls.Load())
	assert.Equal(t, int64(1), extractor.calls.Load())
}

func TestDiscover_EmptyInputSkipsAllBackends(t *testing.T) {
	tests := []struct {
		name    string
		service string
		plan    string
	}{
		{"empty service", "", "Premium"},
		{"empty plan", "Netflix", ""},
		{"whitespace service", "   ", "Premium"},
		{"whitespace plan", "Netflix", "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &fakeSearch{results: netflixResults()}
			extractor := &fakeLLM{text: "229.99"}
			p := New(testConfig(), search, extractor, nil)

			out := p.Discover(context.Background(), model.PriceQuery{ServiceName: tt.service, PlanName: tt.plan})

			assert.Nil(t, out.Amount)
			assert.Equal(t, model.ConfidenceLow, out.Confidence)
			assert.Equal(t, StageInvalidInput, out.Stage)
			assert.Zero(t, search.calls.Load())
			assert.Zero(t, extractor.calls.Load())
		})
	}
}

func TestDiscover_SearchFailureDegrades(t *testing.T) {
	search := &fakeSearch{err: eris.New("timeout")}
	extractor := &fakeLLM{text: "229.99"}
	p := New(testConfig(), search, extractor, nil)

	out := p.Discover(context.Background(), model.PriceQuery{ServiceName: "Netflix", PlanName: "Premium"})

	assert.Nil(t, out.Amount)
	assert.Equal(t, model.ConfidenceLow, out.Confidence)
	assert.Equal(t, StageNoResults, out.Stage)
	assert.Zero(t, extractor.calls.Load())
}

func TestDiscover_NoOfficialSourceSkipsExtraction(t *testing.T) {
	search := &fakeSearch{results: []websearch.Result{
		{Title: "Blog", Snippet: "Netflix price rumor", Link: "https://blog.example/netflix", DisplayLink: "blog.example"},
	}}
	extractor := &fakeLLM{text: "229.99"}
	p := New(testConfig(), search, extractor, nil)

	out := p.Discover(context.Background(), model.PriceQuery{ServiceName: "Netflix", PlanName: "Premium"})

	assert.Equal(t, model.ConfidenceLow, out.Confidence)
	assert.Equal(t, StageNoOfficialSource, out.Stage)
	assert.Equal(t, int64(1), search.calls.Load())
	assert.Zero(t, extractor.calls.Load())
}

func TestDiscover_ExtractionFailureDegrades(t *testing.T) {
	search := &fakeSearch{results: netflixResults()}
	extractor := &fakeLLM{err: eris.New("backend unreachable")}
	p := New(testConfig(), search, extractor, nil)

	out := p.Discover(context.Background(), model.PriceQuery{ServiceName: "Netflix", PlanName: "Premium"})

	assert.Nil(t, out.Amount)
	assert.Equal(t, model.ConfidenceLow, out.Confidence)
	assert.Equal(t, StageNoExtraction, out.Stage)
	// Source survives so operators can see what was being read.
	assert.Equal(t, "https://www.netflix.com/tr/plans", out.SourceURL)
}

func TestDiscover_ExplicitZeroIsLow(t *testing.T) {
	search := &fakeSearch{results: netflixResults()}
	extractor := &fakeLLM{text: "0"}
	p := New(testConfig(), search, extractor, nil)

	out := p.Discover(context.Background(), model.PriceQuery{ServiceName: "Netflix", PlanName: "Premium"})

	assert.Nil(t, out.Amount)
	assert.Equal(t, model.ConfidenceLow, out.Confidence)
	assert.Equal(t, StageNoValue, out.Stage)
}

func TestDiscover_UnparseableOutputIsLow(t *testing.T) {
	search := &fakeSearch{results: netflixResults()}
	extractor := &fakeLLM{text: "fiyat bulunamadı"}
	p := New(testConfig(), search, extractor, nil)

	out := p.Discover(context.Background(), model.PriceQuery{ServiceName: "Netflix", PlanName: "Premium"})

	assert.Nil(t, out.Amount)
	assert.Equal(t, model.ConfidenceLow, out.Confidence)
	assert.Equal(t, StageNoValue, out.Stage)
}

func TestDiscover_CommaDecimalNormalized(t *testing.T) {
	search := &fakeSearch{results: netflixResults()}
	extractor := &fakeLLM{text: "229,99"}
	p := New(testConfig(), search, extractor, nil)

	out := p.Discover(context.Background(), model.PriceQuery{ServiceName: "Netflix", PlanName: "Premium"})

	require.NotNil(t, out.Amount)
	assert.Equal(t, "229.99", out.Amount.String())
	assert.Equal(t, model.ConfidenceHigh, out.Confidence)
}

func TestDiscover_Idempotent(t *testing.T) {
	search := &fakeSearch{results: netflixResults()}
	extractor := &fakeLLM{text: "229.99"}
	p := New(testConfig(), search, extractor, nil)

	q := model.PriceQuery{ServiceName: "Netflix", PlanName: "Premium"}
	first := p.Discover(context.Background(), q)
	second := p.Discover(context.Background(), q)

	require.NotNil(t, first.Amount)
	require.NotNil(t, second.Amount)
	assert.True(t, first.Amount.Equal(*second.Amount))
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.SourceURL, second.SourceURL)
}

func TestDiscover_LocaleOverride(t *testing.T) {
	search := &fakeSearch{results: netflixResults()}
	extractor := &fakeLLM{text: "15.49"}
	p := New(testConfig(), search, extractor, nil)

	out := p.Discover(context.Background(), model.PriceQuery{
		ServiceName: "Netflix",
		PlanName:    "Standard",
		Locale:      "en-US",
	})
	require.NotNil(t, out.Amount)
	assert.Equal(t, "15.49", out.Amount.String())
}
