package intasend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/config"
)

const (
	checkoutPath          = "/api/v1/checkout/"
	createCheckoutTimeout = 30 * time.Second
	statusTimeout         = 10 * time.Second
)

// CheckoutRequest is the checkout creation payload. Extra is an
// out-of-band metadata map the gateway is asked to echo back on the
// webhook, which is the strongest correlation evidence available.
type CheckoutRequest struct {
	PublicKey   string         `json:"public_key"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Country     string         `json:"country"`
	RedirectURL string         `json:"redirect_url"`
	APIRef      string         `json:"api_ref"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// CheckoutResponse carries the hosted checkout URL and the gateway's
// own invoice id. The gateway has shipped both field spellings over
// time, so both are decoded.
type CheckoutResponse struct {
	ID          string `json:"id"`
	InvoiceID   string `json:"invoice_id"`
	URL         string `json:"url"`
	CheckoutURL string `json:"checkout_url"`
	Detail      string `json:"detail"`
	Message     string `json:"message"`
}

// PaymentURL returns whichever checkout URL field was populated.
func (r *CheckoutResponse) PaymentURL() string {
	if r.URL != "" {
		return r.URL
	}
	return r.CheckoutURL
}

// Invoice returns whichever invoice identifier field was populated.
func (r *CheckoutResponse) Invoice() string {
	if r.InvoiceID != "" {
		return r.InvoiceID
	}
	return r.ID
}

// CheckoutStatus is the response of the status-query endpoint, used by
// the manual verification path.
type CheckoutStatus struct {
	Paid   bool    `json:"paid"`
	APIRef string  `json:"api_ref"`
	Amount float64 `json:"amount"`
}

// Client talks to the IntaSend REST API with HTTP Basic auth. The base
// URL and key pair are selected by the test-vs-live mode flag at
// construction; nothing here is process-global.
type Client struct {
	httpClient *http.Client
	baseURL    string
	publicKey  string
	secretKey  string
	logger     *slog.Logger
}

// NewClient builds a gateway client for the configured mode.
func NewClient(cfg config.IntaSendConfig, logger *slog.Logger) *Client {
	publicKey, secretKey := cfg.Keys()
	return &Client{
		httpClient: &http.Client{Timeout: createCheckoutTimeout},
		baseURL:    cfg.BaseURL(),
		publicKey:  publicKey,
		secretKey:  secretKey,
		logger:     logger,
	}
}

// PublicKey exposes the publishable key for inclusion in checkout
// payloads.
func (c *Client) PublicKey() string { return c.publicKey }

// CreateCheckout registers a hosted checkout session with the gateway.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	l := c.logger.With(slog.String("method", "CreateCheckout"), slog.String("api_ref", req.APIRef))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, createCheckoutTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkoutPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout request: %w", err)
	}
	c.prepare(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		l.ErrorContext(ctx, "checkout request failed", slog.Any("error", err))
		return nil, fmt.Errorf("checkout request: %v: %w", err, types.ErrPaymentGateway)
	}
	defer resp.Body.Close()

	var checkout CheckoutResponse
	if err := decodeJSON(resp.Body, &checkout); err != nil {
		l.ErrorContext(ctx, "invalid checkout response", slog.Any("error", err))
		return nil, fmt.Errorf("invalid checkout response: %w", types.ErrPaymentGateway)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail := checkout.Detail
		if detail == "" {
			detail = checkout.Message
		}
		l.WarnContext(ctx, "gateway rejected checkout",
			slog.Int("status", resp.StatusCode), slog.String("detail", detail))
		return nil, fmt.Errorf("gateway returned status %d: %w", resp.StatusCode, types.ErrPaymentGateway)
	}

	if checkout.PaymentURL() == "" {
		l.WarnContext(ctx, "checkout response missing payment URL")
		return nil, fmt.Errorf("no payment URL in gateway response: %w", types.ErrPaymentGateway)
	}

	return &checkout, nil
}

// GetCheckoutStatus queries the settlement state of a checkout session.
func (c *Client) GetCheckoutStatus(ctx context.Context, checkoutID string) (*CheckoutStatus, error) {
	l := c.logger.With(slog.String("method", "GetCheckoutStatus"), slog.String("checkout_id", checkoutID))

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	url := fmt.Sprintf("%s%s%s/", c.baseURL, checkoutPath, checkoutID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	c.prepare(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		l.ErrorContext(ctx, "status request failed", slog.Any("error", err))
		return nil, fmt.Errorf("status request: %v: %w", err, types.ErrPaymentGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.WarnContext(ctx, "gateway status query failed", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("gateway returned status %d: %w", resp.StatusCode, types.ErrPaymentGateway)
	}

	var status CheckoutStatus
	if err := decodeJSON(resp.Body, &status); err != nil {
		return nil, fmt.Errorf("invalid status response: %w", types.ErrPaymentGateway)
	}
	return &status, nil
}

func (c *Client) prepare(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.publicKey, c.secretKey)
}

func decodeJSON(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(data, v)
}
