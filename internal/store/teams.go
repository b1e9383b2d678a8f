package store

import (
	"errors"

	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamAccess bundles the facts the access resolver needs about a user's
// team: membership state plus the team owner's subscription.
type TeamAccess struct {
	MemberStatus       string
	SubscriptionStatus string
	PriceID            string
	CurrentPeriodEnd   int64
}

type Teams struct {
	db *gorm.DB
}

func NewTeams(db *gorm.DB) *Teams {
	return &Teams{db: db}
}

// AccessByUserID returns team access facts for the user, or nil when the
// user belongs to no team. Team billing hangs off the owner's account; a
// member has no mirror rows of their own.
func (t *Teams) AccessByUserID(userID uuid.UUID) (*TeamAccess, error) {
	var member models.TeamMember
	err := t.db.Preload("Team").Where("user_id = ?", userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	facts := &TeamAccess{MemberStatus: member.Status}

	var sub models.Subscription
	err = t.db.Where("user_id = ? AND deleted_at IS NULL", member.Team.OwnerID).
		Order("updated_at DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return facts, nil
	}
	if err != nil {
		return nil, err
	}

	facts.SubscriptionStatus = sub.Status
	facts.PriceID = sub.PriceID
	facts.CurrentPeriodEnd = sub.CurrentPeriodEnd
	return facts, nil
}

func (t *Teams) RemoveMemberships(userID uuid.UUID) error {
	return t.db.Where("user_id = ?", userID).Delete(&models.TeamMember{}).Error
}
