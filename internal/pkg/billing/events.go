package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Webhook event names the reconciler dispatches on. Anything else becomes an
// unhandled event, accepted and ignored for forward compatibility.
const (
	EventPaymentCaptured     = "payment.captured"
	EventPaymentFailed       = "payment.failed"
	EventRefundCreated       = "refund.created"
	EventSubscriptionCharged = "subscription.charged"
)

// PaymentEventEntity is the gateway's payment object as delivered in
// webhook payloads.
type PaymentEventEntity struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"order_id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	ErrorCode        string            `json:"error_code"`
	ErrorDescription string            `json:"error_description"`
	Notes            map[string]string `json:"notes"`
}

// RefundEventEntity is the gateway's refund object.
type RefundEventEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// SubscriptionEventEntity is the gateway's subscription object. CurrentEnd
// is epoch seconds and may be zero when the gateway omits it.
type SubscriptionEventEntity struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	CurrentEnd int64  `json:"current_end"`
}

// PaymentEventData backs both payment.captured and payment.failed.
type PaymentEventData struct {
	Payment PaymentEventEntity
}

type RefundEventData struct {
	Refund  RefundEventEntity
	Payment PaymentEventEntity
}

type SubscriptionChargedData struct {
	Subscription SubscriptionEventEntity
	Payment      PaymentEventEntity
}

// Event is the closed union of known webhook events. Exactly one variant is
// non-nil for a recognized event name; all nil means the event is unhandled.
type Event struct {
	Name string

	PaymentCaptured     *PaymentEventData
	PaymentFailed       *PaymentEventData
	RefundCreated       *RefundEventData
	SubscriptionCharged *SubscriptionChargedData
}

// Unhandled reports whether no known variant was recognized.
func (e *Event) Unhandled() bool {
	return e.PaymentCaptured == nil &&
		e.PaymentFailed == nil &&
		e.RefundCreated == nil &&
		e.SubscriptionCharged == nil
}

type eventEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEventEntity `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity RefundEventEntity `json:"entity"`
		} `json:"refund"`
		Subscription struct {
			Entity SubscriptionEventEntity `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

// ParseEvent validates a raw webhook body at the boundary and maps it into
// the closed event union. Recognized events with a malformed payload are a
// parse error, not a silent fall-through.
func ParseEvent(raw []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid webhook envelope: %w", err)
	}

	name := strings.TrimSpace(env.Event)
	if name == "" {
		return nil, errors.New("webhook envelope missing event name")
	}

	ev := &Event{Name: name}
	switch name {
	case EventPaymentCaptured:
		if env.Payload.Payment.Entity.ID == "" {
			return nil, fmt.Errorf("%s payload missing payment entity", name)
		}
		ev.PaymentCaptured = &PaymentEventData{Payment: env.Payload.Payment.Entity}
	case EventPaymentFailed:
		if env.Payload.Payment.Entity.ID == "" {
			return nil, fmt.Errorf("%s payload missing payment entity", name)
		}
		ev.PaymentFailed = &PaymentEventData{Payment: env.Payload.Payment.Entity}
	case EventRefundCreated:
		if env.Payload.Refund.Entity.ID == "" || env.Payload.Payment.Entity.ID == "" {
			return nil, fmt.Errorf("%s payload missing refund or payment entity", name)
		}
		ev.RefundCreated = &RefundEventData{
			Refund:  env.Payload.Refund.Entity,
			Payment: env.Payload.Payment.Entity,
		}
	case EventSubscriptionCharged:
		if env.Payload.Subscription.Entity.ID == "" || env.Payload.Payment.Entity.ID == "" {
			return nil, fmt.Errorf("%s payload missing subscription or payment entity", name)
		}
		ev.SubscriptionCharged = &SubscriptionChargedData{
			Subscription: env.Payload.Subscription.Entity,
			Payment:      env.Payload.Payment.Entity,
		}
	}

	return ev, nil
}
