package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription is the entitlement a paid invoice buys. One row per user and
// plan; renewals extend CurrentPeriodEnd instead of creating new rows.
type Subscription struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           string         `gorm:"size:36;not null;uniqueIndex:idx_sub_user_plan" json:"user_id"`
	Plan             string         `gorm:"size:50;not null;uniqueIndex:idx_sub_user_plan" json:"plan"`
	Status           string         `gorm:"size:20;not null;index" json:"status"` // ACTIVE, EXPIRED
	CurrentPeriodEnd time.Time      `json:"current_period_end"`
	LastInvoiceID    string         `gorm:"size:36" json:"last_invoice_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Active reports whether the subscription entitles the user right now.
func (s *Subscription) Active(now time.Time) bool {
	return s.Status == "ACTIVE" && now.Before(s.CurrentPeriodEnd)
}
