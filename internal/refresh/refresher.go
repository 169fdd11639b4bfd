// Package refresh runs the batch price refresher: every known service plan
// goes through price discovery, and high-confidence results are written back
// to the catalog.
package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/subtrack-labs/pricewatch/internal/config"
	"github.com/subtrack-labs/pricewatch/internal/model"
	"github.com/subtrack-labs/pricewatch/internal/pricing"
	"github.com/subtrack-labs/pricewatch/internal/resilience"
)

// Discoverer runs price discovery for one query.
type Discoverer interface {
	Discover(ctx context.Context, q model.PriceQuery) pricing.Outcome
}

// PlanStore is the slice of the store the refresher needs.
type PlanStore interface {
	ListPlans(ctx context.Context) ([]model.Plan, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	UpdatePlanPrice(ctx context.Context, planID string, amount decimal.Decimal, currency string, updatedAt time.Time) error
}

// Refresher fans discovery out over the plan catalog with bounded
// concurrency and a shared rate limit on the search backend.
type Refresher struct {
	store    PlanStore
	pipeline Discoverer
	cfg      config.RefreshConfig

	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	now     func() time.Time
}

// New creates a Refresher. Zero config values fall back to defaults.
func New(store PlanStore, pipeline Discoverer, cfg config.RefreshConfig) *Refresher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.RetryAttempts
	}
	retry.OnRetry = resilience.RetryLogger("refresh", "update_plan_price")

	return &Refresher{
		store:    store,
		pipeline: pipeline,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("refresh: store circuit state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		retry: retry,
		now:   time.Now,
	}
}

// RefreshAll runs one full pass over the plan catalog. Individual plan
// failures are counted as skipped and never abort the batch; the returned
// summary always satisfies processed == updated + skipped.
func (r *Refresher) RefreshAll(ctx context.Context) (model.RefreshSummary, error) {
	start := r.now()

	plans, err := r.store.ListPlans(ctx)
	if err != nil {
		return model.RefreshSummary{}, eris.Wrap(err, "refresh: list plans")
	}
	services, err := r.store.ListServices(ctx)
	if err != nil {
		return model.RefreshSummary{}, eris.Wrap(err, "refresh: list services")
	}
	byID := make(map[string]model.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	var processed, updated, skipped atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)

	for _, plan := range plans {
		g.Go(func() error {
			if r.refreshOne(ctx, plan, byID) {
				updated.Add(1)
			} else {
				skipped.Add(1)
			}
			processed.Add(1)
			return nil // a failed plan must not abort the batch
		})
	}
	_ = g.Wait()

	summary := model.RefreshSummary{
		Processed: int(processed.Load()),
		Updated:   int(updated.Load()),
		Skipped:   int(skipped.Load()),
	}
	zap.L().Info("refresh: batch complete",
		zap.Int("processed", summary.Processed),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", r.now().Sub(start)),
	)
	return summary, nil
}

// refreshOne handles a single plan and reports whether its price was
// persisted. A panic inside discovery counts as a skip.
func (r *Refresher) refreshOne(ctx context.Context, plan model.Plan, services map[string]model.Service) (ok bool) {
	log := zap.L().With(zap.String("plan_id", plan.ID), zap.String("plan", plan.Name))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("refresh: plan refresh panicked", zap.Any("panic", rec))
			ok = false
		}
	}()

	if err := r.limiter.Wait(ctx); err != nil {
		return false
	}

	svc, found := services[plan.ServiceID]
	if !found {
		log.Warn("refresh: plan references unknown service", zap.String("service_id", plan.ServiceID))
		return false
	}

	out := r.pipeline.Discover(ctx, model.PriceQuery{
		ServiceName: svc.BestName(),
		PlanName:    plan.Name,
	})
	if out.Confidence != model.ConfidenceHigh || out.Amount == nil {
		log.Info("refresh: no confident price", zap.String("stage", string(out.Stage)))
		return false
	}

	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return resilience.Do(ctx, r.retry, func(ctx context.Context) error {
			return r.store.UpdatePlanPrice(ctx, plan.ID, *out.Amount, out.Currency, r.now().UTC())
		})
	})
	if err != nil {
		log.Warn("refresh: price write failed", zap.Error(err))
		return false
	}

	log.Info("refresh: price updated",
		zap.String("amount", out.Amount.String()),
		zap.String("currency", out.Currency),
		zap.String("source", out.SourceURL),
	)
	return true
}

// RunEvery runs RefreshAll immediately and then on every tick until the
// context is canceled.
func (r *Refresher) RunEvery(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = r.cfg.Interval
	}
	if interval <= 0 {
		interval = 168 * time.Hour
	}

	zap.L().Info("refresh: scheduler started", zap.Duration("interval", interval))
	if _, err := r.RefreshAll(ctx); err != nil {
		zap.L().Error("refresh: batch failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RefreshAll(ctx); err != nil {
				zap.L().Error("refresh: batch failed", zap.Error(err))
			}
		}
	}
}
