package store

import (
	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshTokens struct {
	db *gorm.DB
}

func NewRefreshTokens(db *gorm.DB) *RefreshTokens {
	return &RefreshTokens{db: db}
}

func (r *RefreshTokens) HardDeleteByUserID(userID uuid.UUID) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}
