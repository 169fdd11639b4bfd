package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Confidence is the reliability tier attached to a discovered price.
// The model is intentionally binary: a usable positive amount is high,
// everything else is low. There is no corroboration signal that could
// justify a middle tier.
type Confidence string

const (
	ConfidenceLow  Confidence = "low"
	ConfidenceHigh Confidence = "high"
)

// PriceQuery identifies one (service, plan) pair to discover a price for.
// It exists only for the duration of a single pipeline run.
type PriceQuery struct {
	ServiceName string `json:"service_name"`
	PlanName    string `json:"plan_name"`
	Locale      string `json:"locale,omitempty"`
}

// Validate rejects queries that would produce a meaningless search.
func (q PriceQuery) Validate() error {
	if strings.TrimSpace(q.ServiceName) == "" {
		return eris.New("price query: empty service name")
	}
	if strings.TrimSpace(q.PlanName) == "" {
		return eris.New("price query: empty plan name")
	}
	return nil
}

// SearchResult is one ranked snippet from the web-search backend.
// Treated as untrusted external input.
type SearchResult struct {
	Title         string `json:"title"`
	Snippet       string `json:"snippet"`
	URL           string `json:"url"`
	DisplayDomain string `json:"display_domain"`
}

// RefreshSummary aggregates one batch refresh run.
type RefreshSummary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
}
