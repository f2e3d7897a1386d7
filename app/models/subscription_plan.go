package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanIntervalWeekly  = "weekly"
	PlanIntervalMonthly = "monthly"
	PlanIntervalYearly  = "yearly"
)

const (
	CurrencyINR = "INR"
	CurrencyUSD = "USD"
)

// usdConversionRate is the business-configured INR-paise to USD-cent rate
// used when a plan carries no explicit USD price.
const usdConversionRate = 0.012

// SubscriptionPlan is an immutable catalog row maintained by administrators.
// Prices are stored in minor currency units (paise / cents).
type SubscriptionPlan struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,min=2,max=100"`
	Interval  string    `gorm:"type:varchar(16);not null" json:"interval" validate:"oneof=weekly monthly yearly"`
	Price     int64     `gorm:"not null" json:"price" validate:"gt=0"`
	PriceUSD  *int64    `gorm:"default:null" json:"price_usd,omitempty"`
	Features  string    `gorm:"type:longtext" json:"features"`
	Active    bool      `gorm:"default:true;index" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *SubscriptionPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *SubscriptionPlan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// FeatureList decodes the stored feature JSON array.
func (p *SubscriptionPlan) FeatureList() []string {
	if p.Features == "" {
		return nil
	}
	var features []string
	if err := json.Unmarshal([]byte(p.Features), &features); err != nil {
		return nil
	}
	return features
}

// ChargeAmount returns the amount to charge for this plan in the given
// currency. USD falls back to a fixed conversion of the INR price when the
// plan has no explicit USD price.
func (p *SubscriptionPlan) ChargeAmount(currency string) int64 {
	if currency == CurrencyUSD {
		if p.PriceUSD != nil {
			return *p.PriceUSD
		}
		return int64(math.Round(float64(p.Price) * usdConversionRate))
	}
	return p.Price
}

// PeriodEnd computes the end of a billing period starting at from.
// Monthly and yearly use calendar arithmetic, so month-length variation
// follows time.AddDate semantics.
func (p *SubscriptionPlan) PeriodEnd(from time.Time) time.Time {
	switch p.Interval {
	case PlanIntervalWeekly:
		return from.AddDate(0, 0, 7)
	case PlanIntervalYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}
