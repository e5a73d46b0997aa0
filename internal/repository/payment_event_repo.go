package repository

import (
	"velt/internal/models"

	"gorm.io/gorm"
)

type PaymentEventRepository struct {
	db *gorm.DB
}

func NewPaymentEventRepository(db *gorm.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

func (r *PaymentEventRepository) Create(e *models.PaymentEvent) error {
	return r.db.Create(e).Error
}

func (r *PaymentEventRepository) ListByInvoice(invoiceID string, limit int) ([]models.PaymentEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.PaymentEvent
	err := r.db.Where("invoice_id = ?", invoiceID).Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
