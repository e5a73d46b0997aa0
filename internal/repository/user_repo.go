package repository

import (
	"errors"

	"velt/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var u models.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert mirrors an externally-authenticated identity into the local table.
func (r *UserRepository) Upsert(u *models.User) error {
	existing, err := r.GetByID(u.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(u).Error
	}
	existing.Email = u.Email
	if u.FullName != "" {
		existing.FullName = u.FullName
	}
	return r.db.Save(existing).Error
}
