package push

import (
	"context"
	"strconv"
	"sync"

	"wedding-planner-go/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	rows    []models.Subscription
	nextID  int
	listErr error
	saveErr error
}

func (m *memStore) UpsertSubscription(_ context.Context, sub models.Subscription) (models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return models.Subscription{}, m.saveErr
	}
	for i := range m.rows {
		if m.rows[i].Endpoint == sub.Endpoint {
			m.rows[i].Keys = sub.Keys
			m.rows[i].UserAgent = sub.UserAgent
			m.rows[i].Enabled = true
			return m.rows[i], nil
		}
	}
	m.nextID++
	sub.ID = strconv.Itoa(m.nextID)
	sub.Enabled = true
	m.rows = append(m.rows, sub)
	return sub, nil
}

func (m *memStore) DisableSubscription(_ context.Context, endpoint string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	var n int64
	for i := range m.rows {
		if m.rows[i].Endpoint == endpoint {
			m.rows[i].Enabled = false
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetEnabledSubscriptions(context.Context) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Subscription
	for _, r := range m.rows {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

// scriptedSender fails endpoints listed in failures and records every call.
type scriptedSender struct {
	mu       sync.Mutex
	failures map[string]error
	sent     []string
	payloads [][]byte
}

func (s *scriptedSender) Send(_ context.Context, sub models.Subscription, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sub.Endpoint)
	s.payloads = append(s.payloads, payload)
	return s.failures[sub.Endpoint]
}
