package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/velorahq/velora/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetActivePlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error)
	ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)

	CreateCheckoutRecords(ctx context.Context, sub *models.Subscription, payment *models.Payment, invoice *models.Invoice) error

	GetPaymentByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error)
	UpdatePaymentByGatewayPaymentID(ctx context.Context, gatewayPaymentID string, updates map[string]interface{}) (int64, error)
	CreatePaymentIfNotExists(ctx context.Context, payment *models.Payment) (bool, error)

	LatestSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string) error
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error
	RollSubscriptionPeriod(ctx context.Context, subscriptionID string, start time.Time, end *time.Time) error

	CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetActivePlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", planID, true).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.WithContext(ctx).Where("id = ?", planID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("price ASC").
		Find(&plans).Error
	return plans, err
}

func (r *gormRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateCheckoutRecords inserts subscription, payment and invoice as one
// transaction. Failures name the step so operators can reconcile.
func (r *gormRepository) CreateCheckoutRecords(ctx context.Context, sub *models.Subscription, payment *models.Payment, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return &WriteFailure{Step: "subscription", Err: err}
		}
		if err := tx.Create(payment).Error; err != nil {
			return &WriteFailure{Step: "payment", Err: err}
		}
		if err := tx.Create(invoice).Error; err != nil {
			return &WriteFailure{Step: "invoice", Err: err}
		}
		return nil
	})
}

func (r *gormRepository) GetPaymentByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("gateway_payment_id = ?", gatewayPaymentID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) UpdatePaymentByGatewayPaymentID(ctx context.Context, gatewayPaymentID string, updates map[string]interface{}) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("gateway_payment_id = ?", gatewayPaymentID).
		Updates(updates)
	return tx.RowsAffected, tx.Error
}

// CreatePaymentIfNotExists inserts a payment row unless one already exists
// for the same gateway payment id. The unique index plus OnConflict
// DoNothing keeps duplicate webhook deliveries from double-recording a
// charge.
func (r *gormRepository) CreatePaymentIfNotExists(ctx context.Context, payment *models.Payment) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_payment_id"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) LatestSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpdateSubscriptionStatus(ctx context.Context, subscriptionID, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Update("status", status).Error
}

func (r *gormRepository) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Update("cancel_at_period_end", cancel).Error
}

// RollSubscriptionPeriod moves a subscription into a new billing period.
// A nil end leaves current_period_end untouched.
func (r *gormRepository) RollSubscriptionPeriod(ctx context.Context, subscriptionID string, start time.Time, end *time.Time) error {
	updates := map[string]interface{}{
		"current_period_start": start,
	}
	if end != nil {
		updates["current_period_end"] = *end
	}
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Updates(updates).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.WithContext(ctx).
		Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	if id == 0 {
		return fmt.Errorf("webhook event id is required")
	}
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}
