package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/awesome-academy/booking-tour/config"
)

const defaultBaseURL = "https://api.stripe.com"

// Client talks to the Stripe checkout-sessions API. The rest of the system
// only sees the payment.Gateway interface it implements: open a session for
// an amount, ask whether a session was paid.
type Client struct {
	secretKey  string
	currency   string
	successURL string
	cancelURL  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.StripeConfig) *Client {
	return &Client{
		secretKey:  cfg.SecretKey,
		currency:   cfg.Currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type CheckoutSession struct {
	ID  string
	URL string
}

type sessionResponse struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
}

// CreateSession opens a checkout session for the given amount, tagged with
// the booking code.
func (c *Client) CreateSession(ctx context.Context, amountCents int64, productName, bookingCode string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", c.currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", productName)
	form.Set("metadata[bookingCode]", bookingCode)

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &resp); err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: resp.ID, URL: resp.URL}, nil
}

// IsSessionPaid fetches the session and reports the gateway's authoritative
// paid/unpaid verdict.
func (c *Client) IsSessionPaid(ctx context.Context, sessionID string) (bool, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return false, err
	}
	return strings.EqualFold(resp.PaymentStatus, "paid"), nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read stripe response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}
