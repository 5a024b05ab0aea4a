package models

import (
	"time"
)

// UnlimitedCredits - сентинельное значение creditsPerPeriod,
// означающее "фактически безлимитный" план.
const UnlimitedCredits = 99

type Plan struct {
	BaseModel
	Code             string     `gorm:"uniqueIndex;not null" json:"code"`
	Name             string     `gorm:"not null" json:"name"`
	Description      string     `json:"description"`
	PriceCents       int64      `gorm:"not null" json:"priceCents"`
	Currency         string     `gorm:"default:'EUR'" json:"currency"`
	CreditsPerPeriod int        `gorm:"not null" json:"creditsPerPeriod"`
	Period           PlanPeriod `gorm:"type:varchar(20);default:'MONTHLY'" json:"period"`
	IsActive         bool       `gorm:"default:true" json:"isActive"`
	StripePriceID    string     `json:"-"`
}

// IsUnlimited сообщает, исчерпывается ли лимит кредитов плана
func (p *Plan) IsUnlimited() bool {
	return p.CreditsPerPeriod >= UnlimitedCredits
}

// Subscription привязана к одному родителю (1:1). Ядро бронирований
// только читает ее; статус и границы периода мутирует биллинг (Stripe webhook).
type Subscription struct {
	BaseModel
	UserID               string             `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	PlanID               string             `gorm:"type:uuid;not null;index" json:"planId"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);default:'ACTIVE';index" json:"status"`
	CurrentPeriodStart   time.Time          `gorm:"not null" json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time          `gorm:"not null" json:"currentPeriodEnd"`
	StripeCustomerID     string             `gorm:"index" json:"-"`
	StripeSubscriptionID string             `gorm:"index" json:"-"`
	CancelledAt          *time.Time         `json:"cancelledAt,omitempty"`

	// Relations
	Plan Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// UsagePeriod - строка кредитного леджера за один биллинговый период.
// Ключ - составная пара (SubscriptionID, PeriodStart). Создается лениво
// при первом бронировании периода, никогда не удаляется.
// Инварианты: UsedCredits >= 0; для конечного плана UsedCredits не
// превышает Plan.CreditsPerPeriod.
type UsagePeriod struct {
	BaseModel
	SubscriptionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_usage_sub_period" json:"subscriptionId"`
	PeriodStart    time.Time `gorm:"not null;uniqueIndex:idx_usage_sub_period" json:"periodStart"`
	PeriodEnd      time.Time `gorm:"not null" json:"periodEnd"`
	UsedCredits    int       `gorm:"not null;default:0" json:"usedCredits"`
}

func (UsagePeriod) TableName() string {
	return "usage_periods"
}
