package pushgw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"motelbook/internal/app/policies"
	"motelbook/internal/domain/notification"
)

const sendPath = "/api/send-and-save-notification"

var ErrNotConfigured = errors.New("pushgw: base url not configured")

// Client posts admin notifications to the push gateway, which delivers them
// to the device and stores them in the admin's inbox.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}, BaseURL: baseURL}
}

type sendRequest struct {
	Token        string                    `json:"token"`
	Notification notification.Notification `json:"notification"`
}

func (c *Client) Send(ctx context.Context, token string, n notification.Notification) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(sendRequest{Token: token, Notification: n})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+sendPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("pushgw: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pushgw: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

var _ policies.PushSender = (*Client)(nil)
