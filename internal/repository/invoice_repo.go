package repository

import (
	"time"

	"velt/internal/domain"
	"velt/internal/models"

	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(inv *models.Invoice) error {
	return r.db.Create(inv).Error
}

func (r *InvoiceRepository) GetByID(id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) GetByReference(reference string) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.Where("reference = ?", reference).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) Update(inv *models.Invoice) error {
	return r.db.Save(inv).Error
}

// MarkPaid transitions an invoice to paid and stamps the verification time.
func (r *InvoiceRepository) MarkPaid(inv *models.Invoice, reference string) error {
	now := time.Now()
	inv.Status = domain.InvoiceStatusPaid
	inv.Reference = reference
	inv.VerifiedAt = &now
	return r.db.Save(inv).Error
}
