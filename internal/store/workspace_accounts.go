package store

import (
	"errors"

	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkspaceAccounts struct {
	db *gorm.DB
}

func NewWorkspaceAccounts(db *gorm.DB) *WorkspaceAccounts {
	return &WorkspaceAccounts{db: db}
}

func (w *WorkspaceAccounts) Upsert(acct *models.WorkspaceAccount) error {
	return w.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "external_id", "active", "updated_at"}),
	}).Create(acct).Error
}

func (w *WorkspaceAccounts) FindByUserID(userID uuid.UUID) (*models.WorkspaceAccount, error) {
	var acct models.WorkspaceAccount
	err := w.db.Where("user_id = ?", userID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (w *WorkspaceAccounts) SetActive(userID uuid.UUID, active bool) error {
	return w.db.Model(&models.WorkspaceAccount{}).
		Where("user_id = ?", userID).
		Update("active", active).Error
}

func (w *WorkspaceAccounts) HardDeleteByUserID(userID uuid.UUID) error {
	return w.db.Where("user_id = ?", userID).Delete(&models.WorkspaceAccount{}).Error
}
