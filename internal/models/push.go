package models

import (
	"strings"
	"time"
)

const (
	DefaultAppName = "Wedding Planner"
	DefaultBody    = "You have a new notification"
	DefaultURL     = "/"
)

// Keys is the encryption material the browser hands out with a subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SubscriptionInput is what a client sends when it subscribes.
type SubscriptionInput struct {
	Endpoint string `json:"endpoint"`
	Keys     *Keys  `json:"keys,omitempty"`
}

type Subscription struct {
	ID        string    `json:"id"`
	Endpoint  string    `json:"endpoint"`
	Keys      *Keys     `json:"keys,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Payload is the JSON document delivered to the browser.
type Payload struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	URL   string `json:"url,omitempty"`
}

// WithDefaults fills blank fields. An empty appName falls back to DefaultAppName.
func (p Payload) WithDefaults(appName string) Payload {
	if strings.TrimSpace(appName) == "" {
		appName = DefaultAppName
	}
	if p.Title == "" {
		p.Title = appName
	}
	if p.Body == "" {
		p.Body = DefaultBody
	}
	if p.URL == "" {
		p.URL = DefaultURL
	}
	return p
}

type DeliveryResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type BroadcastResult struct {
	OK      bool             `json:"ok"`
	Results []DeliveryResult `json:"results"`
}
