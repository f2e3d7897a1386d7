package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusTrialing  = "trialing"
)

// Subscription links a user to a plan for a billing period. The storage
// layer does not enforce one subscription per user; readers must order by
// created_at descending and take the first row as the current one.
type Subscription struct {
	ID                 string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID             string    `gorm:"type:char(36);not null;index" json:"user_id"`
	PlanID             string    `gorm:"type:char(36);not null;index" json:"plan_id"`
	Status             string    `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	CurrentPeriodStart time.Time `gorm:"type:timestamp;not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `gorm:"type:timestamp;not null" json:"current_period_end"`
	CancelAtPeriodEnd  bool      `gorm:"default:false" json:"cancel_at_period_end"`
	Metadata           string    `gorm:"type:longtext" json:"metadata,omitempty"`
	CreatedAt          time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
