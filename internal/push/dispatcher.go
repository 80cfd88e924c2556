package push

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wedding-planner-go/internal/models"
	"wedding-planner-go/internal/store"
)

// Config is everything the dispatcher needs. It is passed in at construction,
// nothing is read from the environment here.
type Config struct {
	AppName string
	VAPID   VAPIDConfig
	// TTL in seconds the push service keeps an undelivered message.
	TTL int
	// Concurrency caps in-flight deliveries. Values below 2 deliver sequentially.
	Concurrency int
	// SendTimeout bounds each delivery. Zero means no per-delivery timeout.
	SendTimeout time.Duration
}

type DispatcherOption func(*Dispatcher)

// WithSender replaces the webpush-go sender.
func WithSender(s Sender) DispatcherOption {
	return func(d *Dispatcher) { d.sender = s }
}

func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher fans a payload out to every enabled subscription.
type Dispatcher struct {
	store   store.SubscriptionStore
	sender  Sender
	cfg     Config
	logger  *zap.Logger
	metrics *Metrics
}

func NewDispatcher(s store.SubscriptionStore, cfg Config, logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		store:  s,
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sender == nil {
		d.sender = NewWebPushSender(cfg.VAPID, cfg.TTL, nil)
	}
	return d
}

// PublicKey is the VAPID key clients subscribe with.
func (d *Dispatcher) PublicKey() string {
	return d.cfg.VAPID.PublicKey
}

// Broadcast delivers p to every enabled subscription once. Per-subscription
// failures land in the results; only a failed store read returns an error.
// Delivery outcomes never change the enabled flag.
func (d *Dispatcher) Broadcast(ctx context.Context, p models.Payload) (models.BroadcastResult, error) {
	start := time.Now()
	defer d.metrics.observeBroadcast(start)

	p = p.WithDefaults(d.cfg.AppName)
	body, err := json.Marshal(p)
	if err != nil {
		return models.BroadcastResult{}, err
	}

	subs, err := d.store.GetEnabledSubscriptions(ctx)
	if err != nil {
		d.logger.Error("failed to get subscriptions", zap.Error(err))
		return models.BroadcastResult{}, &StoreError{Op: "fetch enabled", Err: err}
	}

	results := make([]models.DeliveryResult, len(subs))

	if d.cfg.Concurrency < 2 {
		for i, sub := range subs {
			results[i] = d.deliver(ctx, sub, body)
		}
	} else {
		// Workers never return an error, so Wait only joins them.
		var g errgroup.Group
		g.SetLimit(d.cfg.Concurrency)
		for i, sub := range subs {
			i, sub := i, sub
			g.Go(func() error {
				results[i] = d.deliver(ctx, sub, body)
				return nil
			})
		}
		_ = g.Wait()
	}

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	d.logger.Info("push broadcast finished",
		zap.Int("subscriptions", len(subs)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return models.BroadcastResult{OK: true, Results: results}, nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub models.Subscription, body []byte) models.DeliveryResult {
	sendCtx := ctx
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}

	err := d.sender.Send(sendCtx, sub, body)
	d.metrics.observeDelivery(err)
	if err != nil {
		d.logger.Warn("failed to send push",
			zap.String("subscription_id", sub.ID),
			zap.Error(err),
		)
		return models.DeliveryResult{ID: sub.ID, OK: false, Error: err.Error()}
	}
	return models.DeliveryResult{ID: sub.ID, OK: true}
}
