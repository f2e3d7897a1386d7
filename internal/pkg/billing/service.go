package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/velorahq/velora/app/models"
	"github.com/velorahq/velora/internal/pkg/env"
	"github.com/velorahq/velora/internal/pkg/gateway"
	"gorm.io/gorm"
)

// Config carries the secrets the service verifies against. The checkout
// secret and webhook secret are distinct on purpose; a webhook signed with
// the checkout key must not verify.
type Config struct {
	GatewayKeyID   string
	CheckoutSecret string
	WebhookSecret  string
}

// Service implements order initiation, post-checkout verification and
// webhook-driven reconciliation against the billing tables.
type Service struct {
	repo Repository
	gw   *gateway.Client
	cfg  Config
}

// NewService creates a billing service with injected collaborators.
func NewService(repo Repository, gw *gateway.Client, cfg Config) *Service {
	return &Service{repo: repo, gw: gw, cfg: cfg}
}

// NewServiceFromDB wires a billing service from a GORM handle and the
// environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	gw := gateway.NewClientFromEnv()
	return NewService(NewRepository(db), gw, Config{
		GatewayKeyID:   gw.KeyID,
		CheckoutSecret: strings.TrimSpace(env.GetEnv("GATEWAY_KEY_SECRET", "")),
		WebhookSecret:  strings.TrimSpace(env.GetEnv("GATEWAY_WEBHOOK_SECRET", "")),
	})
}

// CreateOrder computes the charge for a plan and registers an order with
// the gateway. The notes bag carries plan and user references so webhook
// events can be correlated later.
func (s *Service) CreateOrder(ctx context.Context, userID, planID, currency, receiptID string) (*OrderResult, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		cur = models.CurrencyINR
	}
	if cur != models.CurrencyINR && cur != models.CurrencyUSD {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCurrency, cur)
	}

	plan, err := s.repo.GetActivePlan(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	receipt := strings.TrimSpace(receiptID)
	if receipt == "" {
		receipt = fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
	}

	order, err := s.gw.CreateOrder(ctx, gateway.CreateOrderInput{
		Amount:   plan.ChargeAmount(cur),
		Currency: cur,
		Receipt:  receipt,
		Notes: map[string]string{
			"plan_id":    plan.ID,
			"plan_name":  plan.Name,
			"interval":   plan.Interval,
			"user_id":    user.ID,
			"user_email": user.Email,
			"currency":   cur,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gateway order creation failed: %w", err)
	}

	return s.orderResult(order, plan, user), nil
}

// DescribeOrder reconstructs the checkout shape from the gateway's order
// record, resolving the plan through the order notes.
func (s *Service) DescribeOrder(ctx context.Context, userID, orderID string) (*OrderResult, error) {
	order, err := s.gw.FetchOrder(ctx, orderID)
	if err != nil {
		var se *gateway.StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: gateway reports status %d", ErrOrderNotFound, se.StatusCode)
		}
		return nil, fmt.Errorf("gateway order fetch failed: %w", err)
	}

	planID := strings.TrimSpace(order.Notes["plan_id"])
	if planID == "" {
		return nil, fmt.Errorf("%w: order notes carry no plan reference", ErrOrderNotFound)
	}

	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.orderResult(order, plan, user), nil
}

func (s *Service) orderResult(order *gateway.Order, plan *models.SubscriptionPlan, user *models.User) *OrderResult {
	return &OrderResult{
		OrderID:      order.ID,
		Amount:       order.Amount,
		Currency:     order.Currency,
		Receipt:      order.Receipt,
		PlanID:       plan.ID,
		PlanName:     plan.Name,
		Interval:     plan.Interval,
		GatewayKeyID: s.cfg.GatewayKeyID,
		User: UserContact{
			Name:    user.FullName,
			Email:   user.Email,
			Contact: user.PhoneNumber,
		},
	}
}

// VerifyAndActivate checks the client-submitted confirmation triple,
// independently confirms capture with the gateway, and activates the
// subscription. A verified signature alone is never sufficient.
func (s *Service) VerifyAndActivate(ctx context.Context, userID string, in VerifyInput) (*CheckoutResult, error) {
	if s.cfg.CheckoutSecret == "" {
		return nil, ErrSecretNotConfigured
	}
	if !gateway.VerifyCheckoutSignature(in.OrderID, in.PaymentID, in.Signature, s.cfg.CheckoutSecret) {
		return nil, ErrSignatureMismatch
	}

	payment, err := s.gw.FetchPayment(ctx, in.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("gateway payment fetch failed: %w", err)
	}
	if payment.Status != models.PaymentStatusCaptured {
		return nil, fmt.Errorf("%w: gateway reports status %q", ErrPaymentNotCaptured, payment.Status)
	}

	return s.FinalizeVerifiedPayment(ctx, userID, in.PlanID, payment)
}

// FinalizeVerifiedPayment writes subscription, payment and invoice for a
// captured payment as one transaction. Callers must have verified the
// signature and fetched the captured status beforehand.
func (s *Service) FinalizeVerifiedPayment(ctx context.Context, userID, planID string, gp *gateway.Payment) (*CheckoutResult, error) {
	plan, err := s.repo.GetActivePlan(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	sub := &models.Subscription{
		ID:                 uuid.NewString(),
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   plan.PeriodEnd(now),
		CancelAtPeriodEnd:  false,
	}
	payment := &models.Payment{
		UserID:           userID,
		SubscriptionID:   sub.ID,
		GatewayPaymentID: gp.ID,
		GatewayOrderID:   gp.OrderID,
		Amount:           gp.Amount,
		Currency:         gp.Currency,
		Status:           models.PaymentStatusCaptured,
		Metadata: metadataJSON(map[string]interface{}{
			"plan_id":         plan.ID,
			"subscription_id": sub.ID,
		}),
	}
	invoice := &models.Invoice{
		UserID:         userID,
		SubscriptionID: sub.ID,
		PaymentID:      gp.ID,
		Status:         models.InvoiceStatusPaid,
		AmountDue:      gp.Amount,
		AmountPaid:     gp.Amount,
		InvoiceNumber:  models.NewInvoiceNumber(userID, now),
		InvoiceDate:    now,
		DueDate:        now,
	}

	if err := s.repo.CreateCheckoutRecords(ctx, sub, payment, invoice); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		Subscription:  sub,
		InvoiceNumber: invoice.InvoiceNumber,
		Payment: PaymentSummary{
			ID:       gp.ID,
			Amount:   gp.Amount,
			Currency: gp.Currency,
			Status:   models.PaymentStatusCaptured,
		},
	}, nil
}

// ListPlans returns the active plan catalog ordered by price.
func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.repo.ListActivePlans(ctx)
}

// CurrentSubscription returns the most recently created subscription for a
// user. Storage does not enforce uniqueness, so newest-first wins.
func (s *Service) CurrentSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.repo.LatestSubscriptionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// SetCancelAtPeriodEnd flips the end-of-period cancellation flag on the
// user's current subscription.
func (s *Service) SetCancelAtPeriodEnd(ctx context.Context, userID string, cancel bool) (*models.Subscription, error) {
	sub, err := s.CurrentSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCancelAtPeriodEnd(ctx, sub.ID, cancel); err != nil {
		return nil, err
	}
	sub.CancelAtPeriodEnd = cancel
	return sub, nil
}

// HandleWebhook authenticates a webhook delivery, records it for dedup and
// audit, and applies the event's state transition. Per-branch storage
// failures are logged and recorded on the event row but do not bubble up:
// the gateway retries on non-2xx and the transitions are not all safely
// re-appliable under retry storms.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader, eventID string) error {
	if s.cfg.WebhookSecret == "" {
		return ErrSecretNotConfigured
	}
	if !gateway.VerifyWebhookSignature(rawBody, signatureHeader, s.cfg.WebhookSecret) {
		return ErrSignatureMismatch
	}

	ev, err := ParseEvent(rawBody)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(eventID)
	if id == "" {
		sum := sha256.Sum256(rawBody)
		id = "hash:" + hex.EncodeToString(sum[:])
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(ctx, &models.WebhookEvent{
		ProviderEventID: id,
		EventType:       ev.Name,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("webhook event persist failed (event=%s): %v", ev.Name, err)
		return nil
	}
	if !created {
		// Duplicate delivery of an already-recorded event.
		return nil
	}

	var procErr error
	switch {
	case ev.PaymentCaptured != nil:
		procErr = s.applyPaymentCaptured(ctx, ev.PaymentCaptured)
	case ev.PaymentFailed != nil:
		procErr = s.applyPaymentFailed(ctx, ev.PaymentFailed)
	case ev.RefundCreated != nil:
		procErr = s.applyRefundCreated(ctx, ev.RefundCreated)
	case ev.SubscriptionCharged != nil:
		procErr = s.applySubscriptionCharged(ctx, ev.SubscriptionCharged)
	default:
		log.Printf("ignoring unhandled webhook event %q", ev.Name)
	}

	errMsg := ""
	if procErr != nil {
		errMsg = procErr.Error()
		log.Printf("webhook event %s (id=%s) failed: %v", ev.Name, id, procErr)
	}
	if err := s.repo.MarkWebhookProcessed(ctx, stored.ID, errMsg); err != nil {
		log.Printf("marking webhook event %d processed failed: %v", stored.ID, err)
	}
	return nil
}

func (s *Service) applyPaymentCaptured(ctx context.Context, data *PaymentEventData) error {
	rows, err := s.repo.UpdatePaymentByGatewayPaymentID(ctx, data.Payment.ID, map[string]interface{}{
		"status": models.PaymentStatusCaptured,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		// The charge may have originated outside this service.
		log.Printf("payment.captured for unknown payment %s, skipping", data.Payment.ID)
	}
	return nil
}

func (s *Service) applyPaymentFailed(ctx context.Context, data *PaymentEventData) error {
	rows, err := s.repo.UpdatePaymentByGatewayPaymentID(ctx, data.Payment.ID, map[string]interface{}{
		"status": models.PaymentStatusFailed,
		"metadata": metadataJSON(map[string]interface{}{
			"error_code":        data.Payment.ErrorCode,
			"error_description": data.Payment.ErrorDescription,
		}),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("payment.failed for unknown payment %s, skipping", data.Payment.ID)
	}
	return nil
}

func (s *Service) applyRefundCreated(ctx context.Context, data *RefundEventData) error {
	meta := map[string]interface{}{
		"refund_id":     data.Refund.ID,
		"refund_amount": data.Refund.Amount,
		"refund_status": data.Refund.Status,
	}
	if data.Refund.CreatedAt > 0 {
		meta["refund_created_at"] = time.Unix(data.Refund.CreatedAt, 0).UTC().Format(time.RFC3339)
	}

	rows, err := s.repo.UpdatePaymentByGatewayPaymentID(ctx, data.Payment.ID, map[string]interface{}{
		"status":   models.PaymentStatusRefunded,
		"metadata": metadataJSON(meta),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Printf("refund.created for unknown payment %s, skipping", data.Payment.ID)
		return nil
	}

	// A refunded charge cancels the subscription it paid for.
	subID := strings.TrimSpace(data.Payment.Notes["subscription_id"])
	if subID == "" {
		if stored, err := s.repo.GetPaymentByGatewayPaymentID(ctx, data.Payment.ID); err == nil {
			subID = stored.SubscriptionID
		}
	}
	if subID != "" {
		return s.repo.UpdateSubscriptionStatus(ctx, subID, models.SubscriptionStatusCancelled)
	}
	return nil
}

func (s *Service) applySubscriptionCharged(ctx context.Context, data *SubscriptionChargedData) error {
	userID := strings.TrimSpace(data.Payment.Notes["user_id"])
	if userID == "" {
		userID = data.Subscription.CustomerID
	}
	status := data.Payment.Status
	if status == "" {
		status = models.PaymentStatusCaptured
	}

	created, err := s.repo.CreatePaymentIfNotExists(ctx, &models.Payment{
		UserID:           userID,
		SubscriptionID:   data.Subscription.ID,
		GatewayPaymentID: data.Payment.ID,
		GatewayOrderID:   data.Payment.OrderID,
		Amount:           data.Payment.Amount,
		Currency:         data.Payment.Currency,
		Status:           status,
	})
	if err != nil {
		return err
	}
	if !created {
		log.Printf("subscription.charged already recorded payment %s, not duplicating", data.Payment.ID)
	}

	now := time.Now().UTC()
	var end *time.Time
	if data.Subscription.CurrentEnd > 0 {
		t := time.Unix(data.Subscription.CurrentEnd, 0).UTC()
		end = &t
	}
	return s.repo.RollSubscriptionPeriod(ctx, data.Subscription.ID, now, end)
}

func metadataJSON(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
