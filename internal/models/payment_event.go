package models

import "time"

// PaymentEvent records every externally visible transition of an invoice
// (verify calls, webhook deliveries, mark-paid notifications) for support
// and dispute handling.
type PaymentEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	InvoiceID string    `gorm:"size:36;index" json:"invoice_id"`
	Reference string    `gorm:"size:255;index" json:"reference"`
	Action    string    `gorm:"size:50;not null" json:"action"`
	Detail    string    `gorm:"type:text" json:"detail"`
	IP        string    `gorm:"size:45" json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}
