package push

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"wedding-planner-go/internal/models"
	"wedding-planner-go/internal/store"
)

// Registrar validates subscription requests and writes them to the store.
type Registrar struct {
	store   store.SubscriptionStore
	logger  *zap.Logger
	metrics *Metrics
}

func NewRegistrar(s store.SubscriptionStore, logger *zap.Logger, metrics *Metrics) *Registrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registrar{store: s, logger: logger, metrics: metrics}
}

// Register stores sub as enabled and returns its id. Registering a known
// endpoint reactivates the existing record and keeps its id.
func (r *Registrar) Register(ctx context.Context, sub models.SubscriptionInput, userAgent string) (string, error) {
	endpoint := strings.TrimSpace(sub.Endpoint)
	if endpoint == "" {
		return "", &ValidationError{Field: "endpoint", Message: "missing endpoint"}
	}

	rec, err := r.store.UpsertSubscription(ctx, models.Subscription{
		Endpoint:  endpoint,
		Keys:      sub.Keys,
		UserAgent: userAgent,
		Enabled:   true,
	})
	if err != nil {
		r.logger.Error("failed to save subscription", zap.String("endpoint", endpoint), zap.Error(err))
		return "", &StoreError{Op: "register", Err: err}
	}

	r.metrics.incRegistered()
	r.logger.Info("push subscription registered", zap.String("subscription_id", rec.ID))
	return rec.ID, nil
}

// Deactivate disables every record for endpoint. Unknown endpoints are not an error.
func (r *Registrar) Deactivate(ctx context.Context, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return &ValidationError{Field: "endpoint", Message: "missing endpoint"}
	}

	n, err := r.store.DisableSubscription(ctx, endpoint)
	if err != nil {
		r.logger.Error("failed to disable subscription", zap.String("endpoint", endpoint), zap.Error(err))
		return &StoreError{Op: "deactivate", Err: err}
	}

	r.metrics.incDeactivated()
	r.logger.Info("push subscription deactivated", zap.Int64("matched", n))
	return nil
}
