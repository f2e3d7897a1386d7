package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusFailed     = "failed"
)

// Payment mirrors a gateway-side charge. Webhook senders only know the
// external payment id, so GatewayPaymentID is the lookup key and carries a
// unique index: one local row per external payment, ever.
type Payment struct {
	ID               string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID           string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	SubscriptionID   string    `gorm:"type:varchar(64);index" json:"subscription_id"`
	GatewayPaymentID string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"gateway_payment_id"`
	GatewayOrderID   string    `gorm:"type:varchar(64);index" json:"gateway_order_id"`
	Amount           int64     `gorm:"not null" json:"amount"`
	Currency         string    `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	Status           string    `gorm:"type:varchar(32);not null;default:'created';index" json:"status"`
	Metadata         string    `gorm:"type:longtext" json:"metadata,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
