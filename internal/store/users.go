package store

import (
	"errors"

	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (u *Users) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := u.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *Users) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := u.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// HardDelete removes the identity row for good, bypassing soft delete.
// Only the deletion orchestrator's final step calls this.
func (u *Users) HardDelete(id uuid.UUID) error {
	return u.db.Unscoped().Where("id = ?", id).Delete(&models.User{}).Error
}
