package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/subtrack-labs/pricewatch/internal/config"
	"github.com/subtrack-labs/pricewatch/internal/model"
	"github.com/subtrack-labs/pricewatch/pkg/llm"
	"github.com/subtrack-labs/pricewatch/pkg/websearch"
)

// Stage names how far a discovery run got before settling on its outcome.
// Every early stage maps to a low-confidence result; only StagePriced
// carries an amount.
type Stage string

const (
	StageInvalidInput     Stage = "invalid_input"
	StageNoResults        Stage = "no_results"
	StageNoOfficialSource Stage = "no_official_source"
	StageNoExtraction     Stage = "no_extraction"
	StageNoValue          Stage = "no_value"
	StagePriced           Stage = "priced"
)

// Outcome is the result of one discovery run. A run never fails: every
// error mode degrades to a nil amount with low confidence, and Stage records
// which one it was.
type Outcome struct {
	Amount     *decimal.Decimal `json:"price"`
	Currency   string           `json:"currency"`
	Confidence model.Confidence `json:"confidence"`
	SourceURL  string           `json:"source_url,omitempty"`
	RawText    string           `json:"-"`
	Stage      Stage            `json:"-"`
}

// Pipeline runs price discovery for one (service, plan) pair:
// query formulation, web search, authority filtering, context aggregation,
// LLM extraction, numeric parsing, confidence classification.
// All dependencies are injected; the zero value is not usable.
type Pipeline struct {
	cfg      *config.Config
	search   websearch.Client
	llm      llm.Client
	registry *Registry
	now      func() time.Time
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, search websearch.Client, llmClient llm.Client, registry *Registry) *Pipeline {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Pipeline{
		cfg:      cfg,
		search:   search,
		llm:      llmClient,
		registry: registry,
		now:      time.Now,
	}
}

// lowOutcome is the deterministic degraded result shared by every failure mode.
func (p *Pipeline) lowOutcome(stage Stage, sourceURL string) Outcome {
	return Outcome{
		Currency:   p.cfg.Pricing.Currency,
		Confidence: model.ConfidenceLow,
		SourceURL:  sourceURL,
		Stage:      stage,
	}
}

func (p *Pipeline) stageTimeout() time.Duration {
	secs := p.cfg.Pricing.StageTimeoutSecs
	if secs <= 0 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

// Discover runs the full pipeline for one query. It never returns an error:
// retrieval failures, missing sources, extraction failures, and unparseable
// output all degrade to a low-confidence outcome. Stages are strictly
// sequential; the two backend calls each get their own timeout.
func (p *Pipeline) Discover(ctx context.Context, q model.PriceQuery) Outcome {
	log := zap.L().With(
		zap.String("service", q.ServiceName),
		zap.String("plan", q.PlanName),
	)

	if err := q.Validate(); err != nil {
		log.Warn("pricing: rejected query", zap.Error(err))
		return p.lowOutcome(StageInvalidInput, "")
	}

	locale := q.Locale
	if locale == "" {
		locale = p.cfg.Search.Locale
	}
	loc := parseLocale(locale)
	query := buildQuery(q.ServiceName, q.PlanName, loc, p.now().Year())
	log.Debug("pricing: formulated query", zap.String("query", query))

	// Retrieval. A transport failure and an empty result set degrade the
	// same way, but they are logged apart so an unreachable backend is
	// visible in operations.
	searchCtx, cancel := context.WithTimeout(ctx, p.stageTimeout())
	results, err := p.search.Search(searchCtx, query, searchOptions(loc, p.cfg.Search.MaxResults))
	cancel()
	if err != nil {
		log.Warn("pricing: search backend failed", zap.Error(err))
		return p.lowOutcome(StageNoResults, "")
	}
	if len(results) == 0 {
		log.Info("pricing: no search results")
		return p.lowOutcome(StageNoResults, "")
	}

	raw := make([]model.SearchResult, 0, len(results))
	for _, r := range results {
		raw = append(raw, model.SearchResult{
			Title:         r.Title,
			Snippet:       r.Snippet,
			URL:           r.Link,
			DisplayDomain: r.DisplayLink,
		})
	}

	// Authority filter. Terminating here keeps context-free prompts from
	// ever reaching the extraction backend.
	serviceKey := NormalizeServiceKey(q.ServiceName)
	official := p.registry.FilterOfficial(raw, serviceKey)
	log.Info("pricing: filtered results",
		zap.Int("raw", len(raw)),
		zap.Int("official", len(official)),
	)
	if len(official) == 0 {
		return p.lowOutcome(StageNoOfficialSource, "")
	}

	source := primarySource(official)
	contextText := buildContext(official, p.cfg.Pricing.ContextCharLimit)

	// Extraction.
	extractCtx, cancel := context.WithTimeout(ctx, p.stageTimeout())
	resp, err := p.llm.Complete(extractCtx, llm.CompletionRequest{
		Model:     p.cfg.LLM.Model,
		MaxTokens: p.cfg.LLM.MaxTokens,
		System:    extractionSystem,
		Prompt:    buildInstruction(q.ServiceName, q.PlanName, p.cfg.Pricing.Currency, contextText),
	})
	cancel()
	if err != nil {
		log.Warn("pricing: extraction backend failed", zap.Error(err))
		return p.lowOutcome(StageNoExtraction, source)
	}
	resp.Usage.LogCost(p.cfg.LLM.Model, "price_extraction")

	rawText := strings.TrimSpace(resp.Text)
	if rawText == "" {
		log.Info("pricing: empty extraction response")
		return p.lowOutcome(StageNoExtraction, source)
	}

	// Parse + classify.
	amount, parsed := parseAmount(rawText)
	confidence := classify(amount)
	if confidence != model.ConfidenceHigh {
		stage := StageNoValue
		if parsed == parsedExplicitZero {
			log.Info("pricing: extractor reported no confident price")
		} else {
			log.Info("pricing: unparseable extraction output", zap.String("raw", rawText))
		}
		out := p.lowOutcome(stage, source)
		out.RawText = rawText
		return out
	}

	log.Info("pricing: discovered price",
		zap.String("amount", amount.String()),
		zap.String("source", source),
	)
	return Outcome{
		Amount:     amount,
		Currency:   p.cfg.Pricing.Currency,
		Confidence: model.ConfidenceHigh,
		SourceURL:  source,
		RawText:    rawText,
		Stage:      StagePriced,
	}
}
