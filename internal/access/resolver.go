// Package access derives a user's current access level from the trial
// record, the billing mirror and team/admin facts. Resolution is a pure
// function; the result is never persisted, every consumer recomputes it.
package access

import (
	"time"

	"github.com/axiestudio/axie-access/internal/models"
)

// Access types, highest precedence first.
const (
	TypePaidSubscription = "paid_subscription"
	TypeStripeTrial      = "stripe_trial"
	TypeFreeTrial        = "free_trial"
	TypeNoAccess         = "no_access"
)

// Unlimited marks remaining time for identities whose access never expires
// (admin overrides).
const Unlimited int64 = -1

// TrialFacts is the slice of the trial record the resolver needs.
type TrialFacts struct {
	Status   string
	TrialEnd time.Time
}

// SubscriptionFacts is the slice of the billing mirror the resolver needs.
type SubscriptionFacts struct {
	Status            string
	PriceID           string
	CurrentPeriodEnd  int64 // epoch seconds
	CancelAtPeriodEnd bool
}

// TeamFacts describes the user's team membership and the team's own
// subscription. TeamTier is precomputed by the caller from the configured
// team price IDs.
type TeamFacts struct {
	MemberStatus       string
	SubscriptionStatus string
	PriceID            string
	CurrentPeriodEnd   int64
	TeamTier           bool
}

// Facts is everything Resolve looks at. Nil pointers mean the store had no
// row for the user.
type Facts struct {
	AdminOverride bool
	HasUsedTrial  bool
	Trial         *TrialFacts
	Subscription  *SubscriptionFacts
	Team          *TeamFacts
}

// Status is the derived access decision consumed by the dashboard and by
// the workspace provisioning flow. Advisory: callers re-resolve before any
// access-gated external call.
type Status struct {
	HasAccess                 bool   `json:"has_access"`
	AccessType                string `json:"access_type"`
	SecondsRemaining          int64  `json:"seconds_remaining"`
	DaysRemaining             int64  `json:"days_remaining"`
	IsCancelledSubscription   bool   `json:"is_cancelled_subscription"`
	RequiresSubscription      bool   `json:"requires_subscription"`
	CanCreateWorkspaceAccount bool   `json:"can_create_workspace_account"`
}

// Resolve computes the access level for one user. Precedence: admin
// override, active team inheritance, individual subscription, free trial,
// nothing.
func Resolve(now time.Time, f Facts) Status {
	s := resolve(now, f)
	s.CanCreateWorkspaceAccount = s.HasAccess && !trialBlocksProvisioning(f.Trial)
	return s
}

func resolve(now time.Time, f Facts) Status {
	if f.AdminOverride {
		return Status{
			HasAccess:        true,
			AccessType:       TypePaidSubscription,
			SecondsRemaining: Unlimited,
			DaysRemaining:    Unlimited,
		}
	}

	if t := f.Team; t != nil &&
		t.MemberStatus == models.TeamMemberActive &&
		t.SubscriptionStatus == models.SubscriptionActive &&
		t.TeamTier {
		secs := remainingSeconds(now, t.CurrentPeriodEnd)
		return Status{
			HasAccess:        true,
			AccessType:       TypePaidSubscription,
			SecondsRemaining: secs,
			DaysRemaining:    daysFromSeconds(secs),
		}
	}

	if sub := f.Subscription; sub != nil {
		if st := subscriptionStatus(now, sub); st.HasAccess {
			return st
		}
	}

	if t := f.Trial; t != nil && t.Status == models.TrialActive && t.TrialEnd.After(now) {
		secs := int64(t.TrialEnd.Sub(now) / time.Second)
		return Status{
			HasAccess:        true,
			AccessType:       TypeFreeTrial,
			SecondsRemaining: secs,
			DaysRemaining:    daysFromSeconds(secs),
		}
	}

	return Status{
		AccessType:           TypeNoAccess,
		RequiresSubscription: f.HasUsedTrial,
	}
}

func subscriptionStatus(now time.Time, sub *SubscriptionFacts) Status {
	switch sub.Status {
	case models.SubscriptionActive, models.SubscriptionTrialing:
	default:
		return Status{AccessType: TypeNoAccess}
	}

	// A cancelled subscription keeps access until its paid-through period
	// ends (grace window), flagged so the UI can surface it.
	if sub.CancelAtPeriodEnd && sub.CurrentPeriodEnd > 0 && now.Unix() >= sub.CurrentPeriodEnd {
		return Status{AccessType: TypeNoAccess}
	}

	accessType := TypePaidSubscription
	if sub.Status == models.SubscriptionTrialing {
		accessType = TypeStripeTrial
	}

	secs := remainingSeconds(now, sub.CurrentPeriodEnd)
	return Status{
		HasAccess:               true,
		AccessType:              accessType,
		SecondsRemaining:        secs,
		DaysRemaining:           daysFromSeconds(secs),
		IsCancelledSubscription: sub.CancelAtPeriodEnd,
	}
}

// trialBlocksProvisioning prevents workspace account creation from a
// session window that is about to be revoked.
func trialBlocksProvisioning(t *TrialFacts) bool {
	if t == nil {
		return false
	}
	return t.Status == models.TrialExpired || t.Status == models.TrialScheduledForDeletion
}

func remainingSeconds(now time.Time, periodEnd int64) int64 {
	if periodEnd <= 0 {
		return 0
	}
	secs := periodEnd - now.Unix()
	if secs < 0 {
		return 0
	}
	return secs
}

func daysFromSeconds(secs int64) int64 {
	if secs <= 0 {
		return 0
	}
	const day = 24 * 60 * 60
	return (secs + day - 1) / day
}
