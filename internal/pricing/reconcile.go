package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

// AlertStatus derives the price-change flag for one subscription read.
// update_required iff the linked plan has a cached price that is strictly
// positive and differs from the stored amount in either direction. The flag
// is recomputed on every fetch and never persisted, so it cannot go stale
// independently of its inputs. Malformed values degrade to none; this
// derivation must never fail a read.
func AlertStatus(sub model.Subscription, plan *model.Plan) model.AlertStatus {
	if plan == nil || plan.CachedPrice == nil {
		return model.AlertNone
	}

	// String round-trip both sides. Amounts cross the storage boundary as
	// numerics of varying precision; comparing canonical decimals avoids
	// float/decimal mixing artifacts.
	cached, err := decimal.NewFromString(plan.CachedPrice.String())
	if err != nil {
		return model.AlertNone
	}
	stored, err := decimal.NewFromString(sub.Amount.String())
	if err != nil {
		return model.AlertNone
	}

	// A zero cached price is not authoritative.
	if !cached.GreaterThan(decimal.Zero) {
		return model.AlertNone
	}

	if !cached.Equal(stored) {
		return model.AlertUpdateRequired
	}
	return model.AlertNone
}
