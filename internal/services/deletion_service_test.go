package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/axiestudio/axie-access/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deletionFixture struct {
	users   *fakeUserStore
	trials  *fakeTrialStore
	subs    *fakeMirrorStore
	history *fakeHistory
	ws      *fakeWorkspaceStore
	tokens  *fakeTokenStore
	teams   *fakeTeamStore
	bridge  *fakeBridge
	api     *fakeBillingAPI
	svc     *DeletionService
}

type fakeUserStore struct {
	users   map[uuid.UUID]*models.User
	deleted []uuid.UUID
	failOn  string
}

func (f *fakeUserStore) FindByID(id uuid.UUID) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) HardDelete(id uuid.UUID) error {
	if f.failOn == "delete" {
		return errors.New("identity store down")
	}
	f.deleted = append(f.deleted, id)
	delete(f.users, id)
	return nil
}

type fakeTrialStore struct {
	records  map[uuid.UUID]*models.TrialRecord
	statuses []trialCall
	deleted  []uuid.UUID
}

func (f *fakeTrialStore) FindByUserID(id uuid.UUID) (*models.TrialRecord, error) {
	return f.records[id], nil
}

func (f *fakeTrialStore) SetStatus(id uuid.UUID, status string, deletionAt *time.Time) error {
	f.statuses = append(f.statuses, trialCall{id, status, deletionAt})
	return nil
}

func (f *fakeTrialStore) HardDeleteByUserID(id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeMirrorStore struct {
	active   []models.Subscription
	all      []models.Subscription
	canceled []uuid.UUID
	deleted  []uuid.UUID
	failMark bool
}

func (f *fakeMirrorStore) ListActiveByUserID(uuid.UUID) ([]models.Subscription, error) {
	return f.active, nil
}

func (f *fakeMirrorStore) ExistsByUserID(uuid.UUID) (bool, error) {
	return len(f.all) > 0 || len(f.active) > 0, nil
}

func (f *fakeMirrorStore) MarkCanceledByUserID(id uuid.UUID, _ time.Time) error {
	if f.failMark {
		return errors.New("db timeout")
	}
	f.canceled = append(f.canceled, id)
	return nil
}

func (f *fakeMirrorStore) HardDeleteByUserID(id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeHistory struct {
	entries []*models.DeletionHistory
	fail    bool
}

func (f *fakeHistory) Append(e *models.DeletionHistory) error {
	if f.fail {
		return errors.New("history table unavailable")
	}
	f.entries = append(f.entries, e)
	return nil
}

type fakeWorkspaceStore struct {
	accounts map[uuid.UUID]*models.WorkspaceAccount
	deleted  []uuid.UUID
}

func (f *fakeWorkspaceStore) FindByUserID(id uuid.UUID) (*models.WorkspaceAccount, error) {
	return f.accounts[id], nil
}

func (f *fakeWorkspaceStore) HardDeleteByUserID(id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeTokenStore struct{ deleted []uuid.UUID }

func (f *fakeTokenStore) HardDeleteByUserID(id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeTeamStore struct{ removed []uuid.UUID }

func (f *fakeTeamStore) RemoveMemberships(id uuid.UUID) error {
	f.removed = append(f.removed, id)
	return nil
}

type fakeBridge struct {
	deactivated []string
	fail        bool
}

func (f *fakeBridge) DeactivateAccount(_ context.Context, email string) error {
	if f.fail {
		return errors.New("workspace api down")
	}
	f.deactivated = append(f.deactivated, email)
	return nil
}

func newDeletionFixture(user *models.User) *deletionFixture {
	fix := &deletionFixture{
		users:   &fakeUserStore{users: map[uuid.UUID]*models.User{user.ID: user}},
		trials:  &fakeTrialStore{records: map[uuid.UUID]*models.TrialRecord{}},
		subs:    &fakeMirrorStore{},
		history: &fakeHistory{},
		ws:      &fakeWorkspaceStore{accounts: map[uuid.UUID]*models.WorkspaceAccount{}},
		tokens:  &fakeTokenStore{},
		teams:   &fakeTeamStore{},
		bridge:  &fakeBridge{},
		api:     &fakeBillingAPI{},
	}
	fix.svc = NewDeletionService(
		fix.users, fix.trials, fix.subs, fix.history,
		fix.ws, fix.tokens, fix.teams, fix.bridge, fix.api,
		"owner@axiestudio.se",
	)
	return fix
}

func TestDeleteAccountRejectsOtherUsers(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "victim@example.com"}
	fix := newDeletionFixture(user)

	err := fix.svc.DeleteAccount(context.Background(), uuid.New(), user.ID, "user_request")
	assert.ErrorIs(t, err, ErrNotAccountOwner)
	assert.Empty(t, fix.history.entries)
}

func TestDeleteAccountRejectsProtectedAdmin(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "OWNER@axiestudio.se"}
	fix := newDeletionFixture(user)

	err := fix.svc.DeleteAccount(context.Background(), user.ID, user.ID, "user_request")
	assert.ErrorIs(t, err, ErrProtectedAccount)
	assert.Empty(t, fix.history.entries)
	assert.Empty(t, fix.users.deleted)
}

func TestHistoryWriteFailureAbortsEverything(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	fix := newDeletionFixture(user)
	fix.history.fail = true

	err := fix.svc.DeleteAccount(context.Background(), user.ID, user.ID, "user_request")
	require.Error(t, err)

	assert.Empty(t, fix.trials.statuses)
	assert.Empty(t, fix.trials.deleted)
	assert.Empty(t, fix.subs.canceled)
	assert.Empty(t, fix.subs.deleted)
	assert.Empty(t, fix.users.deleted)
	assert.Empty(t, fix.bridge.deactivated)
}

func TestFullTeardownRunsAllSteps(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	fix := newDeletionFixture(user)
	fix.trials.records[user.ID] = &models.TrialRecord{
		UserID:      user.ID,
		TrialStatus: models.TrialConvertedToPaid,
	}
	fix.subs.active = []models.Subscription{{
		StripeSubscriptionID: "sub_live",
		StripeCustomerID:     "cus_live",
		Status:               models.SubscriptionActive,
	}}
	fix.ws.accounts[user.ID] = &models.WorkspaceAccount{
		UserID: user.ID,
		Email:  "workspace@example.com",
	}

	err := fix.svc.DeleteAccount(context.Background(), user.ID, user.ID, "user_request")
	require.NoError(t, err)

	require.Len(t, fix.history.entries, 1)
	entry := fix.history.entries[0]
	assert.Equal(t, "user@example.com", entry.Email)
	assert.True(t, entry.HasUsedTrial)
	assert.True(t, entry.EverSubscribed)

	assert.Equal(t, []string{"sub_live"}, fix.api.canceled)
	assert.Equal(t, []string{"workspace@example.com"}, fix.bridge.deactivated)

	require.Len(t, fix.trials.statuses, 1)
	assert.Equal(t, models.TrialDeleted, fix.trials.statuses[0].status)

	assert.Equal(t, []uuid.UUID{user.ID}, fix.subs.deleted)
	assert.Equal(t, []uuid.UUID{user.ID}, fix.ws.deleted)
	assert.Equal(t, []uuid.UUID{user.ID}, fix.tokens.deleted)
	assert.Equal(t, []uuid.UUID{user.ID}, fix.trials.deleted)
	assert.Equal(t, []uuid.UUID{user.ID}, fix.teams.removed)
	assert.Equal(t, []uuid.UUID{user.ID}, fix.users.deleted)
}

func TestChurnedSubscriberStillRecordedAsEverSubscribed(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "churned@example.com"}
	fix := newDeletionFixture(user)
	// Fully churned before deleting: trial canceled, no active or trialing
	// subscription, only an old canceled mirror row left behind.
	fix.trials.records[user.ID] = &models.TrialRecord{
		UserID:      user.ID,
		TrialStatus: models.TrialCanceled,
	}
	fix.subs.all = []models.Subscription{{
		StripeSubscriptionID: "sub_old",
		Status:               models.SubscriptionCanceled,
	}}

	err := fix.svc.DeleteAccount(context.Background(), user.ID, user.ID, "user_request")
	require.NoError(t, err)

	require.Len(t, fix.history.entries, 1)
	entry := fix.history.entries[0]
	assert.True(t, entry.EverSubscribed)
	assert.True(t, entry.HasUsedTrial)
}

func TestPartialFailuresDoNotStopTeardown(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	fix := newDeletionFixture(user)
	fix.subs.failMark = true
	fix.bridge.fail = true

	err := fix.svc.DeleteAccount(context.Background(), user.ID, user.ID, "user_request")
	require.NoError(t, err)

	// Identity still removed despite billing mirror and workspace failures.
	assert.Equal(t, []uuid.UUID{user.ID}, fix.users.deleted)
	require.Len(t, fix.history.entries, 1)
}

func TestIdentityDeleteFailureIsFatal(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}
	fix := newDeletionFixture(user)
	fix.users.failOn = "delete"

	err := fix.svc.DeleteAccount(context.Background(), user.ID, user.ID, "user_request")
	require.Error(t, err)
	// History was still written first, so a retry cannot re-earn a trial.
	require.Len(t, fix.history.entries, 1)
}

func TestSweepEntryPointSkipsOwnerCheckButNotProtection(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "expired@example.com"}
	fix := newDeletionFixture(user)

	require.NoError(t, fix.svc.TeardownUser(context.Background(), user.ID, "trial_expired"))
	assert.Equal(t, []uuid.UUID{user.ID}, fix.users.deleted)

	admin := &models.User{ID: uuid.New(), Email: "owner@axiestudio.se"}
	fix2 := newDeletionFixture(admin)
	err := fix2.svc.TeardownUser(context.Background(), admin.ID, "trial_expired")
	assert.ErrorIs(t, err, ErrProtectedAccount)
}
