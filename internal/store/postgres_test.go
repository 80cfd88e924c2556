package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-planner-go/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStoreFromDB(db), mock
}

func TestPostgresStore_UpsertSubscription(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO push_subscriptions")).
		WithArgs(sqlmock.AnyArg(), "https://push.example/abc", "X", "Y", "Firefox", true).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow("0b9f0c1e-1111-4222-8333-444455556666", "https://push.example/abc", "X", "Y", "Firefox", true, now, now))

	rec, err := s.UpsertSubscription(context.Background(), models.Subscription{
		Endpoint:  "https://push.example/abc",
		Keys:      &models.Keys{P256dh: "X", Auth: "Y"},
		UserAgent: "Firefox",
	})
	require.NoError(t, err)
	assert.Equal(t, "0b9f0c1e-1111-4222-8333-444455556666", rec.ID)
	assert.True(t, rec.Enabled)
	require.NotNil(t, rec.Keys)
	assert.Equal(t, "X", rec.Keys.P256dh)
	assert.Equal(t, "Firefox", rec.UserAgent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertSubscriptionWithoutKeys(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (endpoint) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "https://push.example/legacy", nil, nil, nil, true).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow("id-legacy", "https://push.example/legacy", nil, nil, nil, true, now, now))

	rec, err := s.UpsertSubscription(context.Background(), models.Subscription{Endpoint: "https://push.example/legacy"})
	require.NoError(t, err)
	assert.Nil(t, rec.Keys)
	assert.Empty(t, rec.UserAgent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertSubscriptionError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO push_subscriptions")).
		WillReturnError(errors.New("connection refused"))

	_, err := s.UpsertSubscription(context.Background(), models.Subscription{Endpoint: "https://push.example/abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresStore_DisableSubscription(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE push_subscriptions SET enabled = $1, updated_at = NOW() WHERE endpoint = $2")).
		WithArgs(false, "https://push.example/abc").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.DisableSubscription(context.Background(), "https://push.example/abc")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DisableUnknownEndpoint(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE push_subscriptions")).
		WithArgs(false, "https://push.example/missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := s.DisableSubscription(context.Background(), "https://push.example/missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgresStore_GetEnabledSubscriptions(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, endpoint, p256dh, auth, user_agent, enabled, created_at, updated_at FROM push_subscriptions WHERE enabled = $1 ORDER BY created_at ASC")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow("1", "https://push.example/a", "k1", "a1", nil, true, now, now).
			AddRow("2", "https://push.example/b", nil, nil, "Safari", true, now, now))

	subs, err := s.GetEnabledSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "1", subs[0].ID)
	require.NotNil(t, subs[0].Keys)
	assert.Equal(t, "a1", subs[0].Keys.Auth)
	assert.Nil(t, subs[1].Keys)
	assert.Equal(t, "Safari", subs[1].UserAgent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEnabledSubscriptionsError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).WillReturnError(errors.New("db down"))

	subs, err := s.GetEnabledSubscriptions(context.Background())
	require.Error(t, err)
	assert.Nil(t, subs)
}

func TestPostgresStore_RunMigrations(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS push_subscriptions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.RunMigrations(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RunMigrationsError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS push_subscriptions")).
		WillReturnError(errors.New("permission denied"))

	err := s.RunMigrations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

// Rows are only ever disabled, so the schema must not remove anything and
// endpoint uniqueness has to come from an index.
func TestSchemaKeepsRowsAndKeysByEndpoint(t *testing.T) {
	schema := strings.ToUpper(schemaSQL)
	assert.NotContains(t, schema, "DELETE")
	assert.NotContains(t, schema, "DROP")
	assert.Contains(t, schemaSQL,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_push_subscriptions_endpoint ON push_subscriptions (endpoint);")
}
