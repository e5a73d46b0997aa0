package models

import (
	"time"
)

// User mirrors the externally-authenticated identity. Accounts are created
// and managed by the auth provider; this table only keeps what billing needs
// for bookkeeping and receipts.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;index" json:"email"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	Role      string    `gorm:"size:20;default:'PUBLISHER'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
