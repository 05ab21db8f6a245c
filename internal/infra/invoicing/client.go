package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"motelbook/internal/app/policies"
)

var (
	ErrUnauthorized  = errors.New("invoicing: unauthorized")
	ErrNotConfigured = errors.New("invoicing: base url not configured")
)

// Client talks to the accounting service's contact API with basic auth.
type Client struct {
	HTTP     *http.Client
	BaseURL  string
	Username string
	Password string
}

func New(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		BaseURL:  baseURL,
		Username: username,
		Password: password,
	}
}

type envelope struct {
	Data policies.Contact `json:"data"`
}

func (c *Client) FindContactByEmail(ctx context.Context, email string) (policies.Contact, error) {
	var out envelope
	err := c.do(ctx, http.MethodGet, "/api/contacts/email/"+url.PathEscape(email), nil, &out)
	if err != nil {
		return policies.Contact{}, err
	}
	return out.Data, nil
}

func (c *Client) CreateContact(ctx context.Context, contact policies.Contact) (policies.Contact, error) {
	contact.ID = ""
	body, err := json.Marshal(struct {
		Name         string `json:"name"`
		EmailAddress string `json:"emailAddress"`
		PhoneNumber  string `json:"phoneNumber"`
		AddressLine1 string `json:"addressLine1"`
	}{contact.Name, contact.EmailAddress, contact.PhoneNumber, contact.AddressLine1})
	if err != nil {
		return policies.Contact{}, err
	}
	var out envelope
	if err := c.do(ctx, http.MethodPost, "/api/contacts", body, &out); err != nil {
		return policies.Contact{}, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return ErrNotConfigured
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.Username, c.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("invoicing: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return policies.ErrContactNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= http.StatusBadRequest:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("invoicing: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invoicing: decode: %w", err)
	}
	return nil
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

var _ policies.InvoicingPort = (*Client)(nil)
