package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wedding-planner-go/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	subscriptionKeyPrefix = "pushsub:"
	endpointKeyPrefix     = "pushsub:endpoint:"
	enabledSetKey         = "pushsubs:enabled"
)

// SubscriptionStore persists push subscriptions. Rows are never deleted,
// only disabled.
type SubscriptionStore interface {
	// UpsertSubscription inserts a new enabled subscription or, when the
	// endpoint is already known, refreshes its keys and re-enables it.
	UpsertSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	// DisableSubscription sets enabled = false on every row with the given
	// endpoint and reports how many rows matched.
	DisableSubscription(ctx context.Context, endpoint string) (int64, error)
	// GetEnabledSubscriptions returns enabled rows, oldest first.
	GetEnabledSubscriptions(ctx context.Context) ([]models.Subscription, error)
	Close() error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(opts *redis.Options) *RedisStore {
	rdb := redis.NewClient(opts)
	return &RedisStore{client: rdb}
}

// Ping checks the connection the same way NewPostgresStore does at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) UpsertSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	now := time.Now().UTC()
	newID := uuid.NewString()

	// SETNX claims the endpoint so two concurrent registrations agree on one id.
	claimed, err := s.client.SetNX(ctx, endpointKeyPrefix+sub.Endpoint, newID, 0).Result()
	if err != nil {
		return models.Subscription{}, fmt.Errorf("claim endpoint: %w", err)
	}

	rec := models.Subscription{ID: newID, CreatedAt: now}
	if !claimed {
		id, err := s.client.Get(ctx, endpointKeyPrefix+sub.Endpoint).Result()
		if err != nil {
			return models.Subscription{}, fmt.Errorf("lookup endpoint: %w", err)
		}
		existing, err := s.getSubscription(ctx, id)
		switch {
		case errors.Is(err, redis.Nil):
			rec.ID = id
		case err != nil:
			return models.Subscription{}, err
		default:
			rec = existing
		}
	}

	rec.Endpoint = sub.Endpoint
	rec.Keys = sub.Keys
	rec.UserAgent = sub.UserAgent
	rec.Enabled = true
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return models.Subscription{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, subscriptionKeyPrefix+rec.ID, data, 0)
	pipe.ZAdd(ctx, enabledSetKey, redis.Z{
		Score:  float64(rec.CreatedAt.UnixMicro()),
		Member: rec.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return models.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}

	return rec, nil
}

func (s *RedisStore) DisableSubscription(ctx context.Context, endpoint string) (int64, error) {
	id, err := s.client.Get(ctx, endpointKeyPrefix+endpoint).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup endpoint: %w", err)
	}

	rec, err := s.getSubscription(ctx, id)
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	rec.Enabled = false
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, subscriptionKeyPrefix+rec.ID, data, 0)
	pipe.ZRem(ctx, enabledSetKey, rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("disable subscription: %w", err)
	}

	return 1, nil
}

func (s *RedisStore) GetEnabledSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	ids, err := s.client.ZRange(ctx, enabledSetKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list enabled subscriptions: %w", err)
	}

	subs := make([]models.Subscription, 0, len(ids))
	for _, id := range ids {
		rec, err := s.getSubscription(ctx, id)
		if errors.Is(err, redis.Nil) {
			// Record vanished, drop it from the index
			s.client.ZRem(ctx, enabledSetKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec.Enabled {
			subs = append(subs, rec)
		}
	}
	return subs, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) getSubscription(ctx context.Context, id string) (models.Subscription, error) {
	val, err := s.client.Get(ctx, subscriptionKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Subscription{}, err
		}
		return models.Subscription{}, fmt.Errorf("get subscription %s: %w", id, err)
	}

	var rec models.Subscription
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return models.Subscription{}, fmt.Errorf("decode subscription %s: %w", id, err)
	}
	return rec, nil
}
