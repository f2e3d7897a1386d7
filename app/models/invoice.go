package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvoiceStatusDraft         = "draft"
	InvoiceStatusOpen          = "open"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusUncollectible = "uncollectible"
	InvoiceStatusVoid          = "void"
)

type Invoice struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID         string    `gorm:"type:char(36);not null;index" json:"user_id"`
	SubscriptionID string    `gorm:"type:char(36);index" json:"subscription_id"`
	PaymentID      string    `gorm:"type:varchar(64);index" json:"payment_id"`
	Status         string    `gorm:"type:varchar(32);not null;default:'draft'" json:"status"`
	AmountDue      int64     `gorm:"not null" json:"amount_due"`
	AmountPaid     int64     `gorm:"not null;default:0" json:"amount_paid"`
	InvoiceNumber  string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"invoice_number"`
	InvoiceDate    time.Time `gorm:"type:timestamp;not null" json:"invoice_date"`
	DueDate        time.Time `gorm:"type:timestamp;not null" json:"due_date"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// NewInvoiceNumber derives a unique invoice number from the current
// timestamp and a slice of the owning user id.
func NewInvoiceNumber(userID string, at time.Time) string {
	ref := userID
	if len(ref) > 6 {
		ref = ref[:6]
	}
	return fmt.Sprintf("INV-%d-%s", at.UnixMilli(), ref)
}
