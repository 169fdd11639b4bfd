package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

// Pool abstracts pgxpool.Pool so the store can be unit-tested with pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot store operations.
var preparedStatements = map[string]string{
	"list_services":     `SELECT id, name, display_name FROM services ORDER BY name`,
	"list_plans":        `SELECT id, service_id, plan_name, cached_price::text, currency, last_updated_at FROM service_plans ORDER BY service_id, plan_name`,
	"update_plan_price": `UPDATE service_plans SET cached_price = $1, currency = $2, last_updated_at = $3 WHERE id = $4`,
	"get_subscription":  `SELECT id, user_id, name, amount::text, currency, plan_id, created_at FROM subscriptions WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS services (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name         TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS service_plans (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	service_id      TEXT NOT NULL REFERENCES services(id),
	plan_name       TEXT NOT NULL,
	cached_price    NUMERIC(12,2),
	currency        TEXT,
	last_updated_at TIMESTAMPTZ,
	UNIQUE (service_id, plan_name)
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	amount     NUMERIC(12,2) NOT NULL,
	currency   TEXT NOT NULL,
	plan_id    TEXT REFERENCES service_plans(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT 'generic',
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	read_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_service_plans_service_id ON service_plans(service_id);
CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id);
CREATE INDEX IF NOT EXISTS idx_subscriptions_plan_id ON subscriptions(plan_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, display_name FROM services ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list services")
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.DisplayName); err != nil {
			return nil, eris.Wrap(err, "postgres: scan service")
		}
		services = append(services, svc)
	}
	return services, eris.Wrap(rows.Err(), "postgres: list services iterate")
}

func (s *PostgresStore) ListPlans(ctx context.Context) ([]model.Plan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, service_id, plan_name, cached_price::text, currency, last_updated_at FROM service_plans ORDER BY service_id, plan_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list plans")
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "postgres: list plans iterate")
}

func (s *PostgresStore) UpsertService(ctx context.Context, svc model.Service) (*model.Service, error) {
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO services (id, name, display_name) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name
		 RETURNING id`,
		svc.ID, svc.Name, svc.DisplayName,
	)
	if err := row.Scan(&svc.ID); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert service %s", svc.Name)
	}
	return &svc, nil
}

func (s *PostgresStore) UpsertPlan(ctx context.Context, serviceID, planName string) (*model.Plan, error) {
	id := uuid.New().String()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO service_plans (id, service_id, plan_name) VALUES ($1, $2, $3)
		 ON CONFLICT (service_id, plan_name) DO UPDATE SET plan_name = EXCLUDED.plan_name
		 RETURNING id`,
		id, serviceID, planName,
	)
	plan := model.Plan{ServiceID: serviceID, Name: planName}
	if err := row.Scan(&plan.ID); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert plan %s/%s", serviceID, planName)
	}
	return &plan, nil
}

func (s *PostgresStore) UpdatePlanPrice(ctx context.Context, planID string, amount decimal.Decimal, currency string, updatedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE service_plans SET cached_price = $1, currency = $2, last_updated_at = $3 WHERE id = $4`,
		amount.String(), currency, updatedAt, planID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update plan price %s", planID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "plan not found: %s", planID)
	}
	return nil
}

func (s *PostgresStore) CreateSubscription(ctx context.Context, sub model.Subscription) (*model.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (id, user_id, name, amount, currency, plan_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.UserID, sub.Name, sub.Amount.String(), sub.Currency, sub.PlanID, sub.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert subscription")
	}
	return &sub, nil
}

func (s *PostgresStore) GetSubscriptionWithPlan(ctx context.Context, id string) (*model.Subscription, *model.Plan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, amount::text, currency, plan_id, created_at FROM subscriptions WHERE id = $1`, id)

	sub, err := scanSubscription(row)
	if err == pgx.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrapf(err, "postgres: get subscription %s", id)
	}

	if sub.PlanID == nil {
		return sub, nil, nil
	}

	planRow := s.pool.QueryRow(ctx,
		`SELECT id, service_id, plan_name, cached_price::text, currency, last_updated_at FROM service_plans WHERE id = $1`,
		*sub.PlanID)
	plan, err := scanPlan(planRow)
	if err != nil {
		// A dangling plan link must not fail the subscription read.
		return sub, nil, nil
	}
	return sub, plan, nil
}

func (s *PostgresStore) ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, amount::text, currency, plan_id, created_at FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list subscriptions")
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan subscription")
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: list subscriptions iterate")
}

func (s *PostgresStore) DeleteSubscription(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete subscription %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "subscription not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Kind == "" {
		n.Kind = model.NotificationGeneric
	}
	n.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, kind, title, body, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, string(n.Kind), n.Title, n.Body, n.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert notification")
	}
	return &n, nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, kind, title, body, created_at, read_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list notifications")
	}
	defer rows.Close()

	var notifs []model.Notification
	for rows.Next() {
		var n model.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan notification")
		}
		n.Kind = model.NotificationKind(kind)
		notifs = append(notifs, n)
	}
	return notifs, eris.Wrap(rows.Err(), "postgres: list notifications iterate")
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read_at = $1 WHERE id = $2 AND read_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark notification read %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "notification not found or already read: %s", id)
	}
	return nil
}

// scan helpers shared with row and rows.

type scannable interface {
	Scan(dest ...any) error
}

func scanPlan(row scannable) (*model.Plan, error) {
	var p model.Plan
	var priceText *string
	var currency *string
	if err := row.Scan(&p.ID, &p.ServiceID, &p.Name, &priceText, &currency, &p.LastUpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan plan")
	}
	if currency != nil {
		p.Currency = *currency
	}
	if priceText != nil {
		d, err := decimal.NewFromString(*priceText)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: parse cached price %q", *priceText)
		}
		p.CachedPrice = &d
	}
	return &p, nil
}

func scanSubscription(row scannable) (*model.Subscription, error) {
	var sub model.Subscription
	var amountText string
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.Name, &amountText, &sub.Currency, &sub.PlanID, &sub.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, err
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: parse amount %q", amountText)
	}
	sub.Amount = amount
	return &sub, nil
}
