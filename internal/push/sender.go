package push

import (
	"context"
	"io"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"wedding-planner-go/internal/models"
)

// VAPIDConfig signs requests to the push service.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	// Subject is the contact sent in the VAPID claims, e.g. mailto:ops@example.com.
	Subject string
}

// Sender delivers one encrypted payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub models.Subscription, payload []byte) error
}

type WebPushSender struct {
	vapid  VAPIDConfig
	ttl    int
	client webpush.HTTPClient
}

// NewWebPushSender returns a Sender backed by webpush-go. A nil client uses
// http.DefaultClient.
func NewWebPushSender(vapid VAPIDConfig, ttl int, client webpush.HTTPClient) *WebPushSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPushSender{vapid: vapid, ttl: ttl, client: client}
}

func (s *WebPushSender) Send(ctx context.Context, sub models.Subscription, payload []byte) error {
	if sub.Keys == nil || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return &ProviderError{Message: "subscription has no encryption keys"}
	}

	ws := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, ws, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.vapid.Subject,
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             s.ttl,
	})
	if err != nil {
		return &ProviderError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if msg == "" {
			msg = resp.Status
		}
		return &ProviderError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// GenerateVAPIDKeys returns a fresh key pair in the encoding webpush-go expects.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}
