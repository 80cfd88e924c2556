package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"wedding-planner-go/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var subscriptionColumns = []string{
	"id", "endpoint", "p256dh", "auth", "user_agent", "enabled", "created_at", "updated_at",
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an already opened handle.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RunMigrations creates the table and indexes if they don't exist
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	var p256dh, auth sql.NullString
	if sub.Keys != nil {
		p256dh = sql.NullString{String: sub.Keys.P256dh, Valid: true}
		auth = sql.NullString{String: sub.Keys.Auth, Valid: true}
	}
	userAgent := sql.NullString{String: sub.UserAgent, Valid: sub.UserAgent != ""}

	query, args, err := psql.Insert("push_subscriptions").
		Columns("id", "endpoint", "p256dh", "auth", "user_agent", "enabled", "created_at", "updated_at").
		Values(uuid.New(), sub.Endpoint, p256dh, auth, userAgent, true, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix(`ON CONFLICT (endpoint) DO UPDATE SET
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth,
			user_agent = EXCLUDED.user_agent,
			enabled = TRUE,
			updated_at = NOW()
		RETURNING id, endpoint, p256dh, auth, user_agent, enabled, created_at, updated_at`).
		ToSql()
	if err != nil {
		return models.Subscription{}, err
	}

	rec, err := scanSubscription(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) DisableSubscription(ctx context.Context, endpoint string) (int64, error) {
	query, args, err := psql.Update("push_subscriptions").
		Set("enabled", false).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"endpoint": endpoint}).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("disable subscription: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

func (s *PostgresStore) GetEnabledSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	query, args, err := psql.Select(subscriptionColumns...).
		From("push_subscriptions").
		Where(sq.Eq{"enabled": true}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enabled subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		rec, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return subs, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (models.Subscription, error) {
	var rec models.Subscription
	var p256dh, auth, userAgent sql.NullString

	if err := row.Scan(&rec.ID, &rec.Endpoint, &p256dh, &auth, &userAgent, &rec.Enabled, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return models.Subscription{}, err
	}

	if p256dh.Valid || auth.Valid {
		rec.Keys = &models.Keys{P256dh: p256dh.String, Auth: auth.String}
	}
	if userAgent.Valid {
		rec.UserAgent = userAgent.String
	}
	return rec, nil
}
