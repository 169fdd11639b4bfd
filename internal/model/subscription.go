package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertStatus is the derived price-change flag on a subscription read.
// It is computed on every fetch and never persisted.
type AlertStatus string

const (
	AlertNone           AlertStatus = "none"
	AlertUpdateRequired AlertStatus = "update_required"
)

// Subscription is a user's recorded recurring payment. PlanID links it to a
// known service plan. The link is optional; manually entered subscriptions
// have no plan and never produce a price alert.
type Subscription struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	PlanID    *string         `json:"plan_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotificationKind categorizes a notification row.
type NotificationKind string

const (
	NotificationPriceChange NotificationKind = "price_change"
	NotificationGeneric     NotificationKind = "generic"
)

// Notification is a stored user notification. Delivery is out of scope;
// rows are written and read, nothing more.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
}
