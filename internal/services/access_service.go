package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/axiestudio/axie-access/internal/access"
	"github.com/axiestudio/axie-access/internal/config"
	"github.com/axiestudio/axie-access/internal/models"
	"github.com/axiestudio/axie-access/internal/store"
	"github.com/google/uuid"
)

// Read-side store surfaces the access service needs. Declared here so
// tests can substitute fakes.
type trialReader interface {
	FindByUserID(userID uuid.UUID) (*models.TrialRecord, error)
}

type subscriptionReader interface {
	CurrentByUserID(userID uuid.UUID) (*models.Subscription, error)
}

type teamReader interface {
	AccessByUserID(userID uuid.UUID) (*store.TeamAccess, error)
}

type trialHistoryReader interface {
	HasUsedTrial(email string) (bool, error)
}

// AccessService assembles resolver facts from the stores and the
// configured admin allow-list. It performs no writes; the result is
// recomputed on every call and never cached.
type AccessService struct {
	trials      trialReader
	subs        subscriptionReader
	teams       teamReader
	history     trialHistoryReader
	adminEmails map[string]struct{}
	teamPrices  map[string]struct{}
}

func NewAccessService(
	cfg *config.Config,
	trials trialReader,
	subs subscriptionReader,
	teams teamReader,
	history trialHistoryReader,
) *AccessService {
	s := &AccessService{
		trials:      trials,
		subs:        subs,
		teams:       teams,
		history:     history,
		adminEmails: make(map[string]struct{}),
		teamPrices:  make(map[string]struct{}),
	}
	for _, email := range cfg.AdminEmailList() {
		s.adminEmails[strings.ToLower(email)] = struct{}{}
	}
	for _, priceID := range cfg.TeamPriceIDList() {
		s.teamPrices[priceID] = struct{}{}
	}
	return s
}

// Resolve computes the user's current access status.
func (s *AccessService) Resolve(userID uuid.UUID, email string) (access.Status, error) {
	facts := access.Facts{
		AdminOverride: s.isAdmin(email),
	}

	trial, err := s.trials.FindByUserID(userID)
	if err != nil {
		return access.Status{}, fmt.Errorf("load trial record: %w", err)
	}
	if trial != nil {
		facts.Trial = &access.TrialFacts{
			Status:   trial.TrialStatus,
			TrialEnd: trial.TrialEnd,
		}
	}

	sub, err := s.subs.CurrentByUserID(userID)
	if err != nil {
		return access.Status{}, fmt.Errorf("load billing mirror: %w", err)
	}
	if sub != nil {
		facts.Subscription = &access.SubscriptionFacts{
			Status:            sub.Status,
			PriceID:           sub.PriceID,
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		}
	}

	team, err := s.teams.AccessByUserID(userID)
	if err != nil {
		return access.Status{}, fmt.Errorf("load team facts: %w", err)
	}
	if team != nil {
		facts.Team = &access.TeamFacts{
			MemberStatus:       team.MemberStatus,
			SubscriptionStatus: team.SubscriptionStatus,
			PriceID:            team.PriceID,
			CurrentPeriodEnd:   team.CurrentPeriodEnd,
			TeamTier:           s.isTeamPrice(team.PriceID),
		}
	}

	used, err := s.history.HasUsedTrial(email)
	if err != nil {
		return access.Status{}, fmt.Errorf("check trial history: %w", err)
	}
	facts.HasUsedTrial = used

	return access.Resolve(time.Now().UTC(), facts), nil
}

func (s *AccessService) isAdmin(email string) bool {
	_, ok := s.adminEmails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func (s *AccessService) isTeamPrice(priceID string) bool {
	_, ok := s.teamPrices[priceID]
	return ok
}
