package counter

import (
	"context"
	"strconv"

	"github.com/velorahq/velora/internal/pkg/cache"
)

const (
	webhookEventsKey    = "billing:counters:webhook_events"
	paymentCapturedKey  = "billing:counters:payments_captured"
	paymentsRefundedKey = "billing:counters:payments_refunded"
)

// AddWebhookEvent increments the delivery counter for a webhook event type
// in Redis.
func AddWebhookEvent(eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookEventsKey, eventType, 1).Err()
}

// AddPaymentCaptured increments the captured-payments counter.
func AddPaymentCaptured() error {
	ctx := context.Background()
	return cache.GetClient().Incr(ctx, paymentCapturedKey).Err()
}

// AddPaymentRefunded increments the refunded-payments counter.
func AddPaymentRefunded() error {
	ctx := context.Background()
	return cache.GetClient().Incr(ctx, paymentsRefundedKey).Err()
}

// WebhookEventCounts returns per-event-type delivery counts.
func WebhookEventCounts() (map[string]int64, error) {
	ctx := context.Background()
	raw, err := cache.GetClient().HGetAll(ctx, webhookEventsKey).Result()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(raw))
	for event, v := range raw {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		counts[event] = n
	}
	return counts, nil
}

// PaymentCounts returns the captured and refunded payment totals.
func PaymentCounts() (captured int64, refunded int64, err error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	if v, gerr := rdb.Get(ctx, paymentCapturedKey).Int64(); gerr == nil {
		captured = v
	}
	if v, gerr := rdb.Get(ctx, paymentsRefundedKey).Int64(); gerr == nil {
		refunded = v
	}
	return captured, refunded, nil
}
