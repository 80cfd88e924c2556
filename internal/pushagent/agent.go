// Package pushagent drives the browser side of push subscriptions: worker
// registration, permission prompts, and keeping the server registrar in sync
// with the browser's subscription.
package pushagent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"wedding-planner-go/internal/models"
)

type State string

const (
	StateUnsupported       State = "unsupported"
	StateUnregistered      State = "unregistered"
	StatePermissionPending State = "permission-pending"
	StateSubscribed        State = "subscribed"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

var (
	ErrUnsupported      = errors.New("push notifications are not supported in this browser")
	ErrPermissionDenied = errors.New("notification permission denied")
	ErrMissingPublicKey = errors.New("VAPID public key is not configured")
)

const DefaultWorkerPath = "/sw.js"

// Browser is the slice of browser capabilities the agent needs.
type Browser interface {
	SupportsServiceWorker() bool
	SupportsPush() bool
	UserAgent() string

	// WorkerRegistered reports whether a worker is already installed at scriptURL.
	WorkerRegistered(ctx context.Context, scriptURL string) (bool, error)
	RegisterWorker(ctx context.Context, scriptURL string) error

	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)

	// CurrentSubscription returns nil when the browser holds no subscription.
	CurrentSubscription(ctx context.Context) (*models.SubscriptionInput, error)
	Subscribe(ctx context.Context, applicationServerKey []byte) (*models.SubscriptionInput, error)
	Unsubscribe(ctx context.Context, endpoint string) error
}

// Registrar is the server side of a subscription. *push.Registrar and
// *HTTPRegistrar both satisfy it.
type Registrar interface {
	Register(ctx context.Context, sub models.SubscriptionInput, userAgent string) (string, error)
	Deactivate(ctx context.Context, endpoint string) error
}

type Config struct {
	// PublicKey is the URL-safe base64 VAPID public key.
	PublicKey  string
	WorkerPath string
}

type Agent struct {
	browser   Browser
	registrar Registrar
	cfg       Config
	logger    *zap.Logger

	mu               sync.Mutex
	state            State
	workerRegistered bool
}

// New checks browser capabilities once. Without worker or push support the
// agent stays in StateUnsupported for its whole life.
func New(browser Browser, registrar Registrar, cfg Config, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WorkerPath == "" {
		cfg.WorkerPath = DefaultWorkerPath
	}
	a := &Agent{
		browser:   browser,
		registrar: registrar,
		cfg:       cfg,
		logger:    logger,
		state:     StateUnregistered,
	}
	if !browser.SupportsServiceWorker() || !browser.SupportsPush() {
		a.state = StateUnsupported
	}
	return a
}

func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Register installs the background worker. It needs no permission and is a
// no-op once the worker is in place.
func (a *Agent) Register(ctx context.Context) error {
	if a.State() == StateUnsupported {
		return ErrUnsupported
	}

	a.mu.Lock()
	done := a.workerRegistered
	a.mu.Unlock()
	if done {
		return nil
	}

	ok, err := a.browser.WorkerRegistered(ctx, a.cfg.WorkerPath)
	if err != nil {
		return fmt.Errorf("check worker registration: %w", err)
	}
	if !ok {
		if err := a.browser.RegisterWorker(ctx, a.cfg.WorkerPath); err != nil {
			return fmt.Errorf("register worker: %w", err)
		}
	}

	a.mu.Lock()
	a.workerRegistered = true
	a.mu.Unlock()
	return nil
}

// Refresh syncs the agent state with whatever subscription the browser holds.
func (a *Agent) Refresh(ctx context.Context) error {
	if a.State() == StateUnsupported {
		return ErrUnsupported
	}
	sub, err := a.browser.CurrentSubscription(ctx)
	if err != nil {
		return fmt.Errorf("read subscription: %w", err)
	}
	if sub != nil {
		a.setState(StateSubscribed)
	} else {
		a.setState(StateUnregistered)
	}
	return nil
}

// Subscribe asks for permission, subscribes at the browser and registers the
// result with the server. On any failure the previous state is kept.
func (a *Agent) Subscribe(ctx context.Context) error {
	prev := a.State()
	if prev == StateUnsupported {
		return ErrUnsupported
	}
	if a.browser.Permission() == PermissionDenied {
		return ErrPermissionDenied
	}
	if a.cfg.PublicKey == "" {
		return ErrMissingPublicKey
	}
	appKey, err := DecodeBase64URL(a.cfg.PublicKey)
	if err != nil {
		return fmt.Errorf("decode VAPID public key: %w", err)
	}

	if err := a.Register(ctx); err != nil {
		return err
	}

	a.setState(StatePermissionPending)
	if err := a.subscribe(ctx, appKey); err != nil {
		a.setState(prev)
		a.logger.Warn("push subscribe failed", zap.Error(err))
		return err
	}
	a.setState(StateSubscribed)
	return nil
}

func (a *Agent) subscribe(ctx context.Context, appKey []byte) error {
	perm, err := a.browser.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("request permission: %w", err)
	}
	if perm != PermissionGranted {
		return ErrPermissionDenied
	}

	sub, err := a.browser.Subscribe(ctx, appKey)
	if err != nil {
		return fmt.Errorf("browser subscribe: %w", err)
	}

	if _, err := a.registrar.Register(ctx, *sub, a.browser.UserAgent()); err != nil {
		// Drop the browser subscription so nothing half-registered is left behind.
		if uerr := a.browser.Unsubscribe(ctx, sub.Endpoint); uerr != nil {
			a.logger.Warn("failed to roll back browser subscription", zap.Error(uerr))
		}
		return fmt.Errorf("register subscription: %w", err)
	}
	return nil
}

// Unsubscribe revokes the browser subscription first, then tells the server.
// The server call is best effort; the agent ends up unregistered either way.
func (a *Agent) Unsubscribe(ctx context.Context) error {
	if a.State() == StateUnsupported {
		return ErrUnsupported
	}

	sub, err := a.browser.CurrentSubscription(ctx)
	if err != nil {
		return fmt.Errorf("read subscription: %w", err)
	}
	if sub == nil {
		a.setState(StateUnregistered)
		return nil
	}

	if err := a.browser.Unsubscribe(ctx, sub.Endpoint); err != nil {
		return fmt.Errorf("browser unsubscribe: %w", err)
	}
	a.setState(StateUnregistered)

	if err := a.registrar.Deactivate(ctx, sub.Endpoint); err != nil {
		a.logger.Warn("server deactivation failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
	}
	return nil
}
