package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/velorahq/velora/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.razorpay.com/v1"

// ErrNotConfigured is returned when the gateway key pair is missing from the
// environment. Callers must treat this as fatal, never as a soft failure.
var ErrNotConfigured = errors.New("gateway key id/secret are not configured")

// ErrTimeout is returned when a gateway call exceeds its bounded timeout.
// No automatic retry happens here; retrying is the caller's decision.
var ErrTimeout = errors.New("gateway request timed out")

// StatusError reports a non-2xx gateway response. Callers that care about a
// specific status (a 404 on an order lookup, say) unwrap it with errors.As.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway request failed: %s %s status=%d body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the payment gateway's REST API using basic auth with the
// configured key pair.
type Client struct {
	KeyID     string
	KeySecret string

	APIBaseURL string

	HTTPClient *http.Client
}

// Order is a gateway-side record of an intended charge.
type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

// Payment is the gateway's view of a charge attempt.
type Payment struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"order_id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	ErrorCode        string            `json:"error_code"`
	ErrorDescription string            `json:"error_description"`
	Notes            map[string]string `json:"notes"`
}

// CreateOrderInput carries the order-creation payload. Notes travel with the
// order so later webhook events can be correlated back to plan and user.
type CreateOrderInput struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
	// PaymentCapture asks the gateway to auto-capture authorized payments.
	PaymentCapture int `json:"payment_capture"`
}

func NewClientFromEnv() *Client {
	return &Client{
		KeyID:      strings.TrimSpace(env.GetEnv("GATEWAY_KEY_ID", "")),
		KeySecret:  strings.TrimSpace(env.GetEnv("GATEWAY_KEY_SECRET", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("GATEWAY_API_BASE_URL", defaultAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateOrder registers an order with the gateway before checkout starts.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if in.Amount <= 0 {
		return nil, errors.New("order amount must be positive")
	}
	in.PaymentCapture = 1

	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	var out Order
	if err := c.doJSON(ctx, http.MethodPost, "/orders", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("gateway order response missing order id")
	}
	return &out, nil
}

// FetchOrder loads an order by its gateway id.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, errors.New("order id is required")
	}

	var out Order
	if err := c.doJSON(ctx, http.MethodGet, "/orders/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchPayment loads a payment by its gateway id. A verified checkout
// signature alone is not proof of capture; callers fetch the payment and
// check its status independently.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, errors.New("payment id is required")
	}

	var out Payment
	if err := c.doJSON(ctx, http.MethodGet, "/payments/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	if strings.TrimSpace(c.KeyID) == "" || strings.TrimSpace(c.KeySecret) == "" {
		return ErrNotConfigured
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return json.Unmarshal(raw, out)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
