package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// parseResult distinguishes the three parser outcomes. An explicit zero is
// the extractor saying "no confident price". It is not a parse failure and
// never a price of 0.00.
type parseResult int

const (
	parsedNone parseResult = iota
	parsedExplicitZero
	parsedValue
)

// decimalPattern matches a price with 1-5 integer digits and 1-2 fractional
// digits, with either separator. integerPattern is the fallback for
// whole-number prices; model output is inconsistent about including cents.
var (
	decimalPattern = regexp.MustCompile(`(\d{1,5}[.,]\d{1,2})`)
	integerPattern = regexp.MustCompile(`(\d{2,6})`)
)

// parseAmount extracts a normalized monetary amount from raw extraction text.
func parseAmount(raw string) (*decimal.Decimal, parseResult) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, parsedNone
	}
	if trimmed == "0" {
		return nil, parsedExplicitZero
	}

	if m := decimalPattern.FindStringSubmatch(trimmed); m != nil {
		normalized := strings.ReplaceAll(m[1], ",", ".")
		d, err := decimal.NewFromString(normalized)
		if err != nil {
			return nil, parsedNone
		}
		return &d, parsedValue
	}

	if m := integerPattern.FindStringSubmatch(trimmed); m != nil {
		d, err := decimal.NewFromString(m[1])
		if err != nil {
			return nil, parsedNone
		}
		return &d, parsedValue
	}

	return nil, parsedNone
}
