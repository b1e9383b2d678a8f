package store

import (
	"github.com/axiestudio/axie-access/internal/models"
	"gorm.io/gorm"
)

// DeletionHistory is append-only; rows are never updated or removed.
type DeletionHistory struct {
	db *gorm.DB
}

func NewDeletionHistory(db *gorm.DB) *DeletionHistory {
	return &DeletionHistory{db: db}
}

func (d *DeletionHistory) Append(entry *models.DeletionHistory) error {
	return d.db.Create(entry).Error
}

// HasUsedTrial reports whether this email ever consumed a free trial on a
// since-deleted account. This is the sole control against
// delete-and-resignup trial abuse.
func (d *DeletionHistory) HasUsedTrial(email string) (bool, error) {
	var count int64
	err := d.db.Model(&models.DeletionHistory{}).
		Where("email = ? AND has_used_trial = true", email).
		Count(&count).Error
	return count > 0, err
}
