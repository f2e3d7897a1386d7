package billing

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/velorahq/velora/app/models"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository for service tests. Payments are keyed
// by gateway payment id to mirror the unique index on the real table.
type fakeRepo struct {
	plans    map[string]*models.SubscriptionPlan
	users    map[string]*models.User
	payments map[string]*models.Payment
	subs     map[string]*models.Subscription
	invoices []*models.Invoice
	events   map[string]*models.WebhookEvent

	nextEventID uint
	failStep    string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:    map[string]*models.SubscriptionPlan{},
		users:    map[string]*models.User{},
		payments: map[string]*models.Payment{},
		subs:     map[string]*models.Subscription{},
		events:   map[string]*models.WebhookEvent{},
	}
}

func (f *fakeRepo) GetActivePlan(_ context.Context, planID string) (*models.SubscriptionPlan, error) {
	p, ok := f.plans[planID]
	if !ok || !p.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepo) GetPlan(_ context.Context, planID string) (*models.SubscriptionPlan, error) {
	p, ok := f.plans[planID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListActivePlans(_ context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	for _, p := range f.plans {
		if p.Active {
			plans = append(plans, *p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })
	return plans, nil
}

func (f *fakeRepo) GetUser(_ context.Context, userID string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeRepo) CreateCheckoutRecords(_ context.Context, sub *models.Subscription, payment *models.Payment, invoice *models.Invoice) error {
	if f.failStep == "subscription" {
		return &WriteFailure{Step: "subscription", Err: gorm.ErrInvalidData}
	}
	f.subs[sub.ID] = sub
	if f.failStep == "payment" {
		delete(f.subs, sub.ID)
		return &WriteFailure{Step: "payment", Err: gorm.ErrInvalidData}
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	f.payments[payment.GatewayPaymentID] = payment
	if f.failStep == "invoice" {
		delete(f.subs, sub.ID)
		delete(f.payments, payment.GatewayPaymentID)
		return &WriteFailure{Step: "invoice", Err: gorm.ErrInvalidData}
	}
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	f.invoices = append(f.invoices, invoice)
	return nil
}

func (f *fakeRepo) GetPaymentByGatewayPaymentID(_ context.Context, gatewayPaymentID string) (*models.Payment, error) {
	p, ok := f.payments[gatewayPaymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepo) UpdatePaymentByGatewayPaymentID(_ context.Context, gatewayPaymentID string, updates map[string]interface{}) (int64, error) {
	p, ok := f.payments[gatewayPaymentID]
	if !ok {
		return 0, nil
	}
	if v, ok := updates["status"]; ok {
		p.Status = v.(string)
	}
	if v, ok := updates["metadata"]; ok {
		p.Metadata = v.(string)
	}
	return 1, nil
}

func (f *fakeRepo) CreatePaymentIfNotExists(_ context.Context, payment *models.Payment) (bool, error) {
	if _, exists := f.payments[payment.GatewayPaymentID]; exists {
		return false, nil
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	f.payments[payment.GatewayPaymentID] = payment
	return true, nil
}

func (f *fakeRepo) LatestSubscriptionByUser(_ context.Context, userID string) (*models.Subscription, error) {
	var latest *models.Subscription
	for _, s := range f.subs {
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeRepo) UpdateSubscriptionStatus(_ context.Context, subscriptionID, status string) error {
	if s, ok := f.subs[subscriptionID]; ok {
		s.Status = status
	}
	return nil
}

func (f *fakeRepo) SetCancelAtPeriodEnd(_ context.Context, subscriptionID string, cancel bool) error {
	if s, ok := f.subs[subscriptionID]; ok {
		s.CancelAtPeriodEnd = cancel
	}
	return nil
}

func (f *fakeRepo) RollSubscriptionPeriod(_ context.Context, subscriptionID string, start time.Time, end *time.Time) error {
	if s, ok := f.subs[subscriptionID]; ok {
		s.CurrentPeriodStart = start
		if end != nil {
			s.CurrentPeriodEnd = *end
		}
	}
	return nil
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(_ context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if stored, exists := f.events[event.ProviderEventID]; exists {
		return false, stored, nil
	}
	f.nextEventID++
	event.ID = f.nextEventID
	f.events[event.ProviderEventID] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(_ context.Context, id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
		}
	}
	return nil
}
