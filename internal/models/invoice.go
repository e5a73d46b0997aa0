package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice is a server-owned pending-payment record. It is created before any
// checkout is presented and only the server moves it to paid or failed; a
// client-reported checkout success is never enough on its own.
type Invoice struct {
	ID         string         `gorm:"primaryKey;size:36" json:"invoiceId"`
	UserID     string         `gorm:"size:36;not null;index" json:"user_id"`
	Plan       string         `gorm:"size:50;not null" json:"plan"`
	Price      float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	Currency   string         `gorm:"size:3;default:'GHS'" json:"currency"`
	Reference  string         `gorm:"size:255;index" json:"reference"` // checkout attempt reference, bound at verify time
	Status     string         `gorm:"size:20;not null;index" json:"status"` // pending, verifying, paid, failed
	VerifiedAt *time.Time     `json:"verified_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Invoice) TableName() string {
	return "invoices"
}
