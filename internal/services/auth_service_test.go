package services

import (
	"testing"
	"time"

	"github.com/axiestudio/axie-access/internal/config"
	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrialCreator struct {
	created []*models.TrialRecord
}

func (f *fakeTrialCreator) Create(record *models.TrialRecord) error {
	f.created = append(f.created, record)
	return nil
}

type fakeTrialHistory struct {
	used map[string]bool
}

func (f *fakeTrialHistory) HasUsedTrial(email string) (bool, error) {
	return f.used[email], nil
}

func TestProvisionTrialGivesFreshUserSevenDays(t *testing.T) {
	trials := &fakeTrialCreator{}
	svc := NewAuthService(nil, &config.Config{}, trials, &fakeTrialHistory{})

	userID := uuid.New()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.provisionTrial(userID, "new@example.com", now))

	require.Len(t, trials.created, 1)
	trial := trials.created[0]
	assert.Equal(t, userID, trial.UserID)
	assert.Equal(t, models.TrialActive, trial.TrialStatus)
	assert.True(t, trial.TrialStart.Equal(now))
	assert.True(t, trial.TrialEnd.Equal(now.Add(7*24*time.Hour)))
}

func TestProvisionTrialPreExpiresReturningUser(t *testing.T) {
	trials := &fakeTrialCreator{}
	history := &fakeTrialHistory{used: map[string]bool{"returning@example.com": true}}
	svc := NewAuthService(nil, &config.Config{}, trials, history)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.provisionTrial(uuid.New(), "returning@example.com", now))

	// A deleted-and-recreated account must not earn a second free window:
	// the record is born expired, so the resolver reports
	// requires_subscription immediately.
	require.Len(t, trials.created, 1)
	trial := trials.created[0]
	assert.Equal(t, models.TrialExpired, trial.TrialStatus)
	assert.True(t, trial.TrialEnd.Equal(now))
	assert.Nil(t, trial.DeletionScheduledAt)
}
