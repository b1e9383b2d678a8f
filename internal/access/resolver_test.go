package access

import (
	"testing"
	"time"

	"github.com/axiestudio/axie-access/internal/models"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestAdminOverrideBeatsEverything(t *testing.T) {
	st := Resolve(now, Facts{
		AdminOverride: true,
		Trial:         &TrialFacts{Status: models.TrialExpired},
		Subscription:  &SubscriptionFacts{Status: "past_due"},
	})

	assert.True(t, st.HasAccess)
	assert.Equal(t, TypePaidSubscription, st.AccessType)
	assert.Equal(t, Unlimited, st.SecondsRemaining)
}

func TestFreeTrialWithOneDayLeft(t *testing.T) {
	st := Resolve(now, Facts{
		Trial: &TrialFacts{
			Status:   models.TrialActive,
			TrialEnd: now.Add(24 * time.Hour),
		},
	})

	assert.True(t, st.HasAccess)
	assert.Equal(t, TypeFreeTrial, st.AccessType)
	assert.Equal(t, int64(86400), st.SecondsRemaining)
	assert.Equal(t, int64(1), st.DaysRemaining)
	assert.True(t, st.CanCreateWorkspaceAccount)
}

func TestExpiredTrialDeniesAccess(t *testing.T) {
	st := Resolve(now, Facts{
		Trial: &TrialFacts{
			Status:   models.TrialExpired,
			TrialEnd: now.Add(-time.Hour),
		},
	})

	assert.False(t, st.HasAccess)
	assert.Equal(t, TypeNoAccess, st.AccessType)
	assert.False(t, st.CanCreateWorkspaceAccount)
}

func TestCancelledSubscriptionKeepsAccessUntilPeriodEnd(t *testing.T) {
	st := Resolve(now, Facts{
		Subscription: &SubscriptionFacts{
			Status:            models.SubscriptionActive,
			CancelAtPeriodEnd: true,
			CurrentPeriodEnd:  now.Add(48 * time.Hour).Unix(),
		},
	})

	assert.True(t, st.HasAccess)
	assert.Equal(t, TypePaidSubscription, st.AccessType)
	assert.True(t, st.IsCancelledSubscription)
	assert.Equal(t, int64(2), st.DaysRemaining)
}

func TestCancelledSubscriptionPastPeriodEndDeniesAccess(t *testing.T) {
	st := Resolve(now, Facts{
		Subscription: &SubscriptionFacts{
			Status:            models.SubscriptionActive,
			CancelAtPeriodEnd: true,
			CurrentPeriodEnd:  now.Add(-time.Minute).Unix(),
		},
	})

	assert.False(t, st.HasAccess)
}

func TestStripeTrialUsesProcessorClock(t *testing.T) {
	st := Resolve(now, Facts{
		Subscription: &SubscriptionFacts{
			Status:           models.SubscriptionTrialing,
			CurrentPeriodEnd: now.Add(72 * time.Hour).Unix(),
		},
		// Local trial record disagrees; the processor-reported period wins
		// for trialing subscriptions.
		Trial: &TrialFacts{Status: models.TrialActive, TrialEnd: now.Add(time.Hour)},
	})

	assert.True(t, st.HasAccess)
	assert.Equal(t, TypeStripeTrial, st.AccessType)
	assert.Equal(t, int64(3), st.DaysRemaining)
}

func TestTeamInheritanceGrantsPaidAccess(t *testing.T) {
	st := Resolve(now, Facts{
		Team: &TeamFacts{
			MemberStatus:       models.TeamMemberActive,
			SubscriptionStatus: models.SubscriptionActive,
			PriceID:            "price_team_tier",
			TeamTier:           true,
			CurrentPeriodEnd:   now.Add(30 * 24 * time.Hour).Unix(),
		},
	})

	assert.True(t, st.HasAccess)
	assert.Equal(t, TypePaidSubscription, st.AccessType)
}

func TestNonTeamTierPriceDoesNotInherit(t *testing.T) {
	st := Resolve(now, Facts{
		Team: &TeamFacts{
			MemberStatus:       models.TeamMemberActive,
			SubscriptionStatus: models.SubscriptionActive,
			PriceID:            "price_individual",
			TeamTier:           false,
		},
	})

	assert.False(t, st.HasAccess)
}

func TestReturningUserRequiresSubscription(t *testing.T) {
	st := Resolve(now, Facts{HasUsedTrial: true})

	assert.False(t, st.HasAccess)
	assert.Equal(t, TypeNoAccess, st.AccessType)
	assert.True(t, st.RequiresSubscription)
}

func TestScheduledForDeletionBlocksProvisioningEvenWithSubscription(t *testing.T) {
	st := Resolve(now, Facts{
		Subscription: &SubscriptionFacts{
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: now.Add(720 * time.Hour).Unix(),
		},
		Trial: &TrialFacts{Status: models.TrialScheduledForDeletion},
	})

	assert.True(t, st.HasAccess)
	assert.False(t, st.CanCreateWorkspaceAccount)
}
