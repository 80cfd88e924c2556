package pushagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"wedding-planner-go/internal/models"
)

// HTTPRegistrar talks to the /subscribe endpoint of the push service.
type HTTPRegistrar struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRegistrar(baseURL string, client *http.Client) *HTTPRegistrar {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRegistrar{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *HTTPRegistrar) Register(ctx context.Context, sub models.SubscriptionInput, userAgent string) (string, error) {
	var out struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, map[string]any{
		"subscription": sub,
		"userAgent":    userAgent,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *HTTPRegistrar) Deactivate(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodDelete, map[string]string{"endpoint": endpoint}, nil)
}

func (c *HTTPRegistrar) do(ctx context.Context, method string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/subscribe", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("subscribe endpoint returned %d: %s", resp.StatusCode, e.Error)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
