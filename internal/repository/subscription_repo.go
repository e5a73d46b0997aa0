package repository

import (
	"errors"
	"time"

	"velt/internal/domain"
	"velt/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByUserAndPlan(userID, plan string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ? AND plan = ?", userID, plan).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) GetByUser(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).Order("current_period_end DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Activate extends (or starts) the subscription bought by invoiceID. A
// renewal extends from the later of now and the current period end, so
// paying early never shortens the entitlement.
func (r *SubscriptionRepository) Activate(userID, plan, invoiceID string, interval time.Duration) (*models.Subscription, error) {
	sub, err := r.GetByUserAndPlan(userID, plan)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if sub == nil {
		sub = &models.Subscription{
			UserID:           userID,
			Plan:             plan,
			Status:           domain.SubscriptionStatusActive,
			CurrentPeriodEnd: now.Add(interval),
			LastInvoiceID:    invoiceID,
		}
		if err := r.db.Create(sub).Error; err != nil {
			return nil, err
		}
		return sub, nil
	}
	start := now
	if sub.CurrentPeriodEnd.After(now) {
		start = sub.CurrentPeriodEnd
	}
	sub.Status = domain.SubscriptionStatusActive
	sub.CurrentPeriodEnd = start.Add(interval)
	sub.LastInvoiceID = invoiceID
	if err := r.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}
