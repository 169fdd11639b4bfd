package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

// ErrNotFound is wrapped by store operations that target a missing row.
var ErrNotFound = eris.New("not found")

// Store defines the persistence interface for the subscription backend.
// Plan prices are written by the batch refresher only; everything else is
// single-row CRUD.
type Store interface {
	// Catalog. Upserts are keyed by natural name so seeding is idempotent.
	ListServices(ctx context.Context) ([]model.Service, error)
	ListPlans(ctx context.Context) ([]model.Plan, error)
	UpsertService(ctx context.Context, svc model.Service) (*model.Service, error)
	UpsertPlan(ctx context.Context, serviceID, planName string) (*model.Plan, error)
	UpdatePlanPrice(ctx context.Context, planID string, amount decimal.Decimal, currency string, updatedAt time.Time) error

	// Subscriptions. GetSubscriptionWithPlan returns (nil, nil, nil) when
	// the subscription does not exist; the plan is nil when unlinked.
	CreateSubscription(ctx context.Context, sub model.Subscription) (*model.Subscription, error)
	GetSubscriptionWithPlan(ctx context.Context, id string) (*model.Subscription, *model.Plan, error)
	ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error

	// Notifications
	CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
