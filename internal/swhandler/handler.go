// Package swhandler is the background side of web push: it turns delivered
// payloads into notifications and routes clicks back to an app window.
package swhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"wedding-planner-go/internal/models"
)

type NotificationData struct {
	URL string `json:"url"`
}

type Notification struct {
	Title string
	Body  string
	Data  NotificationData
}

type Window interface {
	URL() string
	Focus(ctx context.Context) error
}

// Host is the browser runtime the handler lives in.
type Host interface {
	ShowNotification(ctx context.Context, n Notification) error
	CloseNotification(ctx context.Context, n Notification) error
	MatchWindows(ctx context.Context) ([]Window, error)
	OpenWindow(ctx context.Context, url string) error
}

type Handler struct {
	host    Host
	appName string
	logger  *zap.Logger
}

func New(host Host, appName string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{host: host, appName: appName, logger: logger}
}

// OnPush shows a notification for a delivered payload. A payload that is not
// JSON is shown as plain text with the default body.
func (h *Handler) OnPush(ctx context.Context, data []byte) *Completion {
	p := parsePayload(data).WithDefaults(h.appName)
	n := Notification{Title: p.Title, Body: p.Body, Data: NotificationData{URL: p.URL}}

	return run(func() error {
		if err := h.host.ShowNotification(ctx, n); err != nil {
			h.logger.Error("show notification failed", zap.String("title", n.Title), zap.Error(err))
			return fmt.Errorf("show notification: %w", err)
		}
		return nil
	})
}

func parsePayload(data []byte) models.Payload {
	var p models.Payload
	if err := json.Unmarshal(data, &p); err == nil {
		return p
	}
	return models.Payload{Title: strings.TrimSpace(string(data))}
}

// OnNotificationClick closes the notification and brings the app to its url,
// reusing an open window when one already shows it.
func (h *Handler) OnNotificationClick(ctx context.Context, n Notification) *Completion {
	target := n.Data.URL
	if target == "" {
		target = models.DefaultURL
	}

	return run(func() error {
		if err := h.host.CloseNotification(ctx, n); err != nil {
			h.logger.Warn("close notification failed", zap.Error(err))
		}

		windows, err := h.host.MatchWindows(ctx)
		if err != nil {
			return fmt.Errorf("match windows: %w", err)
		}
		for _, w := range windows {
			if sameLocation(w.URL(), target) {
				return w.Focus(ctx)
			}
		}
		return h.host.OpenWindow(ctx, target)
	})
}

// OnSubscriptionChange does not resubscribe. The client picks up the lost
// subscription the next time the page refreshes its state.
func (h *Handler) OnSubscriptionChange(ctx context.Context) *Completion {
	h.logger.Info("push subscription changed by provider")
	return resolved(nil)
}

// sameLocation reports whether target, resolved against the window's own
// URL, points at the same page. Fragments are ignored.
func sameLocation(windowURL, target string) bool {
	w, err := url.Parse(windowURL)
	if err != nil {
		return false
	}
	t, err := url.Parse(target)
	if err != nil {
		return false
	}
	t = w.ResolveReference(t)

	return strings.EqualFold(w.Scheme, t.Scheme) &&
		strings.EqualFold(w.Host, t.Host) &&
		cleanPath(w.Path) == cleanPath(t.Path) &&
		w.RawQuery == t.RawQuery
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
