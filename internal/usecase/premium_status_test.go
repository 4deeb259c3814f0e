package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/infrastructure/repository/memory"
	profilemock "github.com/riskibarqy/ajnabicam-profile/internal/mocks/domain/profile"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPremiumStatus(userID string, repo profile.Repository) *PremiumStatus {
	status := NewPremiumStatus(userID, repo, logging.NewNop())
	status.now = fixedClock(testNow)
	return status
}

func withPremium(id string, until time.Time) profile.Profile {
	item := profile.New(id, id+"CODE", testNow.Add(-48*time.Hour))
	item.PremiumUntil = &until
	return item
}

func TestPremiumStatus_LoadFutureExpiryIsActive(t *testing.T) {
	until := testNow.Add(5 * time.Hour)
	status := newPremiumStatus("U1", memory.NewProfileRepository(withPremium("U1", until)))

	require.NoError(t, status.Load(t.Context()))
	require.True(t, status.IsPremium())
	require.NotNil(t, status.Expiry())
	require.True(t, status.Expiry().Equal(until))
}

func TestPremiumStatus_LoadPastExpiryClearsRecord(t *testing.T) {
	repo := memory.NewProfileRepository(withPremium("U1", testNow.Add(-time.Minute)))
	status := newPremiumStatus("U1", repo)

	require.NoError(t, status.Load(t.Context()))
	require.False(t, status.IsPremium())
	require.Nil(t, status.Expiry())

	stored, _, _ := repo.GetByID(t.Context(), "U1")
	require.Nil(t, stored.PremiumUntil)
	require.True(t, stored.Present.Has(profile.FieldPremiumUntil))
}

func TestPremiumStatus_ExpiryEqualToNowIsInactive(t *testing.T) {
	status := newPremiumStatus("U1", memory.NewProfileRepository(withPremium("U1", testNow)))

	require.False(t, status.CheckPremiumStatus(t.Context()))
}

func TestPremiumStatus_NoValueIsInactive(t *testing.T) {
	status := newPremiumStatus("U1", memory.NewProfileRepository(profile.New("U1", "AB12CD", testNow)))

	require.NoError(t, status.Load(t.Context()))
	require.False(t, status.IsPremium())
}

func TestPremiumStatus_SetPremium(t *testing.T) {
	repo := memory.NewProfileRepository(profile.New("U1", "AB12CD", testNow.Add(-48*time.Hour)))
	status := newPremiumStatus("U1", repo)

	past := testNow.Add(-time.Hour)
	require.ErrorIs(t, status.SetPremium(t.Context(), true, &past), ErrInvalidInput)
	require.ErrorIs(t, status.SetPremium(t.Context(), true, nil), ErrInvalidInput)
	require.False(t, status.IsPremium())

	future := testNow.Add(3 * time.Hour)
	require.NoError(t, status.SetPremium(t.Context(), true, &future))
	require.True(t, status.IsPremium())
	stored, _, _ := repo.GetByID(t.Context(), "U1")
	require.NotNil(t, stored.PremiumUntil)
	require.True(t, stored.PremiumUntil.Equal(future))
	require.True(t, stored.UpdatedAt.Equal(testNow), "premium write stamps updatedAt")

	require.NoError(t, status.SetPremium(t.Context(), false, &future))
	require.False(t, status.IsPremium())
	require.Nil(t, status.Expiry())
	stored, _, _ = repo.GetByID(t.Context(), "U1")
	require.Nil(t, stored.PremiumUntil)
}

func TestPremiumStatus_SetPremiumUnknownProfile(t *testing.T) {
	status := newPremiumStatus("ghost", memory.NewProfileRepository())
	future := testNow.Add(time.Hour)

	require.ErrorIs(t, status.SetPremium(t.Context(), true, &future), ErrNotFound)
}

func TestPremiumStatus_FailedWriteKeepsLocalStateUsingMockery(t *testing.T) {
	t.Parallel()

	repo := profilemock.NewRepository(t)
	status := newPremiumStatus("U1", repo)
	future := testNow.Add(time.Hour)

	repo.On("Merge", mock.Anything, "U1", mock.AnythingOfType("*profile.Patch")).Return(errors.New("write timeout")).Once()

	err := status.SetPremium(context.Background(), true, &future)
	require.Error(t, err)
	require.False(t, status.IsPremium())
	require.Nil(t, status.Expiry())
}

func TestPremiumStatus_CheckFallsBackToLocalExpiryUsingMockery(t *testing.T) {
	t.Parallel()

	repo := profilemock.NewRepository(t)
	status := newPremiumStatus("U1", repo)
	ctx := context.Background()
	until := testNow.Add(time.Hour)

	repo.On("GetByID", mock.Anything, "U1").Return(withPremium("U1", until), true, nil).Once()
	require.NoError(t, status.Load(ctx))
	require.True(t, status.IsPremium())

	repo.On("GetByID", mock.Anything, "U1").Return(profile.Profile{}, false, errors.New("offline")).Once()
	require.True(t, status.CheckPremiumStatus(ctx))

	var events []bool
	status.Subscribe(func(active bool, _ *time.Time) { events = append(events, active) })

	status.now = fixedClock(until.Add(time.Second))
	repo.On("GetByID", mock.Anything, "U1").Return(profile.Profile{}, false, errors.New("offline")).Once()
	require.False(t, status.CheckPremiumStatus(ctx))
	require.False(t, status.IsPremium())
	require.Nil(t, status.Expiry())
	require.Equal(t, []bool{false}, events)
}

func TestPremiumStatus_LoadFailureLeavesInactiveUsingMockery(t *testing.T) {
	t.Parallel()

	repo := profilemock.NewRepository(t)
	status := newPremiumStatus("U1", repo)

	repo.On("GetByID", mock.Anything, "U1").Return(profile.Profile{}, false, errors.New("offline")).Once()

	require.Error(t, status.Load(context.Background()))
	require.False(t, status.IsPremium())
}

func TestPremiumStatus_SubscribeNotifiesOnChange(t *testing.T) {
	repo := memory.NewProfileRepository(profile.New("U1", "AB12CD", testNow))
	status := newPremiumStatus("U1", repo)

	type event struct {
		active bool
		expiry *time.Time
	}
	var events []event
	cancel := status.Subscribe(func(active bool, expiry *time.Time) {
		events = append(events, event{active: active, expiry: expiry})
	})

	require.NoError(t, status.Load(t.Context()))
	require.Empty(t, events, "unchanged state must not notify")

	future := testNow.Add(time.Hour)
	require.NoError(t, status.SetPremium(t.Context(), true, &future))
	require.Len(t, events, 1)
	require.True(t, events[0].active)
	require.True(t, events[0].expiry.Equal(future))

	cancel()
	require.NoError(t, status.SetPremium(t.Context(), false, nil))
	require.Len(t, events, 1)
}
