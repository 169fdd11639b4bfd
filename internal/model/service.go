package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a commercial subscription provider (Netflix, Spotify, ...).
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// BestName returns the name used to drive price discovery for this service,
// preferring the human-readable display name over the registry key.
func (s Service) BestName() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// Plan is a named commercial plan offered by a service. It carries the
// durable cached price discovered by the refresher: CachedPrice is nil until
// a high-confidence discovery has run, and is never cleared afterwards.
// A stale price is preferred over none.
type Plan struct {
	ID            string           `json:"id"`
	ServiceID     string           `json:"service_id"`
	Name          string           `json:"name"`
	CachedPrice   *decimal.Decimal `json:"cached_price,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	LastUpdatedAt *time.Time       `json:"last_updated_at,omitempty"`
}
