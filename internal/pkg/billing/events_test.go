package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_PaymentCaptured(t *testing.T) {
	raw := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_123",
					"order_id": "order_abc",
					"amount": 9999,
					"currency": "INR",
					"status": "captured",
					"notes": {"plan_id": "plan_1", "user_id": "user_1"}
				}
			}
		}
	}`)

	ev, err := ParseEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentCaptured, ev.Name)
	require.NotNil(t, ev.PaymentCaptured)
	assert.False(t, ev.Unhandled())
	assert.Equal(t, "pay_123", ev.PaymentCaptured.Payment.ID)
	assert.Equal(t, "user_1", ev.PaymentCaptured.Payment.Notes["user_id"])
}

func TestParseEvent_RefundCreated(t *testing.T) {
	raw := []byte(`{
		"event": "refund.created",
		"payload": {
			"refund": {
				"entity": {"id": "rfnd_1", "payment_id": "pay_123", "amount": 9999, "status": "processed", "created_at": 1714564800}
			},
			"payment": {
				"entity": {"id": "pay_123", "notes": {"subscription_id": "sub_1"}}
			}
		}
	}`)

	ev, err := ParseEvent(raw)
	require.NoError(t, err)
	require.NotNil(t, ev.RefundCreated)
	assert.Equal(t, "rfnd_1", ev.RefundCreated.Refund.ID)
	assert.Equal(t, "sub_1", ev.RefundCreated.Payment.Notes["subscription_id"])
}

func TestParseEvent_SubscriptionCharged(t *testing.T) {
	raw := []byte(`{
		"event": "subscription.charged",
		"payload": {
			"subscription": {"entity": {"id": "gsub_1", "customer_id": "cust_1", "current_end": 1717243200}},
			"payment": {"entity": {"id": "pay_456", "order_id": "order_def", "amount": 9999, "currency": "INR", "status": "captured"}}
		}
	}`)

	ev, err := ParseEvent(raw)
	require.NoError(t, err)
	require.NotNil(t, ev.SubscriptionCharged)
	assert.Equal(t, int64(1717243200), ev.SubscriptionCharged.Subscription.CurrentEnd)
}

func TestParseEvent_UnknownEventIsUnhandled(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event": "some.unhandled.event", "payload": {}}`))
	require.NoError(t, err)
	assert.True(t, ev.Unhandled())
	assert.Equal(t, "some.unhandled.event", ev.Name)
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	require.Error(t, err)

	_, err = ParseEvent([]byte(`{"payload": {}}`))
	require.Error(t, err)

	// Known event name without the entity it needs is a boundary error.
	_, err = ParseEvent([]byte(`{"event": "payment.captured", "payload": {}}`))
	require.Error(t, err)
}
