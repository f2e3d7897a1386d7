package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return &Client{
		KeyID:      "key_test",
		KeySecret:  "secret_test",
		APIBaseURL: url,
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)

		var in CreateOrderInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, int64(9999), in.Amount)
		assert.Equal(t, 1, in.PaymentCapture)

		json.NewEncoder(w).Encode(Order{
			ID:       "order_abc",
			Amount:   in.Amount,
			Currency: in.Currency,
			Receipt:  in.Receipt,
			Status:   "created",
			Notes:    in.Notes,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	order, err := c.CreateOrder(context.Background(), CreateOrderInput{
		Amount:   9999,
		Currency: "INR",
		Receipt:  "receipt_1",
		Notes:    map[string]string{"plan_id": "plan_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, "plan_1", order.Notes["plan_id"])
}

func TestCreateOrder_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"description":"order amount exceeds limit"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CreateOrder(context.Background(), CreateOrderInput{Amount: 100, Currency: "INR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
	assert.Contains(t, err.Error(), "order amount exceeds limit")
}

func TestFetchOrder_NotFoundStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"description":"The id provided does not exist"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.FetchOrder(context.Background(), "order_missing")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "/orders/order_missing", se.Path)
	assert.Contains(t, se.Body, "does not exist")
}

func TestFetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/pay_123", r.URL.Path)
		json.NewEncoder(w).Encode(Payment{
			ID:       "pay_123",
			OrderID:  "order_abc",
			Amount:   9999,
			Currency: "INR",
			Status:   "captured",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	p, err := c.FetchPayment(context.Background(), "pay_123")
	require.NoError(t, err)
	assert.Equal(t, "captured", p.Status)
	assert.Equal(t, "order_abc", p.OrderID)
}

func TestClient_NotConfigured(t *testing.T) {
	c := &Client{HTTPClient: http.DefaultClient}
	_, err := c.FetchPayment(context.Background(), "pay_123")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchOrder(ctx, "order_abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}
