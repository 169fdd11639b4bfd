package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/subtrack-labs/pricewatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS services (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS service_plans (
	id              TEXT PRIMARY KEY,
	service_id      TEXT NOT NULL REFERENCES services(id),
	plan_name       TEXT NOT NULL,
	cached_price    TEXT,
	currency        TEXT,
	last_updated_at DATETIME,
	UNIQUE (service_id, plan_name)
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	amount     TEXT NOT NULL,
	currency   TEXT NOT NULL,
	plan_id    TEXT REFERENCES service_plans(id),
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT 'generic',
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	read_at    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_service_plans_service_id ON service_plans(service_id);
CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for test seeding.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, display_name FROM services ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list services")
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.DisplayName); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan service")
		}
		services = append(services, svc)
	}
	return services, eris.Wrap(rows.Err(), "sqlite: list services iterate")
}

func (s *SQLiteStore) ListPlans(ctx context.Context) ([]model.Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, service_id, plan_name, cached_price, currency, last_updated_at FROM service_plans ORDER BY service_id, plan_name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plans")
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := sqliteScanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, eris.Wrap(rows.Err(), "sqlite: list plans iterate")
}

func (s *SQLiteStore) UpsertService(ctx context.Context, svc model.Service) (*model.Service, error) {
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO services (id, name, display_name) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET display_name = excluded.display_name
		 RETURNING id`,
		svc.ID, svc.Name, svc.DisplayName,
	)
	if err := row.Scan(&svc.ID); err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert service %s", svc.Name)
	}
	return &svc, nil
}

func (s *SQLiteStore) UpsertPlan(ctx context.Context, serviceID, planName string) (*model.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO service_plans (id, service_id, plan_name) VALUES (?, ?, ?)
		 ON CONFLICT (service_id, plan_name) DO UPDATE SET plan_name = excluded.plan_name
		 RETURNING id`,
		uuid.New().String(), serviceID, planName,
	)
	plan := model.Plan{ServiceID: serviceID, Name: planName}
	if err := row.Scan(&plan.ID); err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert plan %s/%s", serviceID, planName)
	}
	return &plan, nil
}

func (s *SQLiteStore) UpdatePlanPrice(ctx context.Context, planID string, amount decimal.Decimal, currency string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE service_plans SET cached_price = ?, currency = ?, last_updated_at = ? WHERE id = ?`,
		amount.String(), currency, updatedAt, planID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update plan price %s", planID)
	}
	return checkRowsAffected(res, "plan", planID)
}

func (s *SQLiteStore) CreateSubscription(ctx context.Context, sub model.Subscription) (*model.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, user_id, name, amount, currency, plan_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Name, sub.Amount.String(), sub.Currency, sub.PlanID, sub.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert subscription")
	}
	return &sub, nil
}

func (s *SQLiteStore) GetSubscriptionWithPlan(ctx context.Context, id string) (*model.Subscription, *model.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, amount, currency, plan_id, created_at FROM subscriptions WHERE id = ?`, id)

	sub, err := sqliteScanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: get subscription %s", id)
	}

	if sub.PlanID == nil {
		return sub, nil, nil
	}

	planRow := s.db.QueryRowContext(ctx,
		`SELECT id, service_id, plan_name, cached_price, currency, last_updated_at FROM service_plans WHERE id = ?`,
		*sub.PlanID)
	plan, err := sqliteScanPlan(planRow)
	if err != nil {
		return sub, nil, nil
	}
	return sub, plan, nil
}

func (s *SQLiteStore) ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, amount, currency, plan_id, created_at FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list subscriptions")
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := sqliteScanSubscription(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan subscription")
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: list subscriptions iterate")
}

func (s *SQLiteStore) DeleteSubscription(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete subscription %s", id)
	}
	return checkRowsAffected(res, "subscription", id)
}

func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Kind == "" {
		n.Kind = model.NotificationGeneric
	}
	n.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, kind, title, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Kind), n.Title, n.Body, n.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert notification")
	}
	return &n, nil
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, kind, title, body, created_at, read_at FROM notifications WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list notifications")
	}
	defer rows.Close()

	var notifs []model.Notification
	for rows.Next() {
		var n model.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan notification")
		}
		n.Kind = model.NotificationKind(kind)
		notifs = append(notifs, n)
	}
	return notifs, eris.Wrap(rows.Err(), "sqlite: list notifications iterate")
}

func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark notification read %s", id)
	}
	return checkRowsAffected(res, "notification", id)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s not found: %s", entity, id)
	}
	return nil
}

func sqliteScanPlan(row scannable) (*model.Plan, error) {
	var p model.Plan
	var priceText, currency sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(&p.ID, &p.ServiceID, &p.Name, &priceText, &currency, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan plan")
	}
	if currency.Valid {
		p.Currency = currency.String
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.LastUpdatedAt = &t
	}
	if priceText.Valid {
		d, err := decimal.NewFromString(priceText.String)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse cached price %q", priceText.String)
		}
		p.CachedPrice = &d
	}
	return &p, nil
}

func sqliteScanSubscription(row scannable) (*model.Subscription, error) {
	var sub model.Subscription
	var amountText string
	err := row.Scan(&sub.ID, &sub.UserID, &sub.Name, &amountText, &sub.Currency, &sub.PlanID, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse amount %q", amountText)
	}
	sub.Amount = amount
	return &sub, nil
}
