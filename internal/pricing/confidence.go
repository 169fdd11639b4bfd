package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

// classify maps a parsed amount to its confidence tier: a present, strictly
// positive amount is high; everything else is low. The model is binary
// because a single filtered source carries no corroboration signal that
// could support a middle tier.
func classify(amount *decimal.Decimal) model.Confidence {
	if amount != nil && amount.GreaterThan(decimal.Zero) {
		return model.ConfidenceHigh
	}
	return model.ConfidenceLow
}
