package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventhub/internal/lock"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/notify"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/validation"
)

var (
	alice = model.Identity{UserID: "alice", Name: "Alice", Email: "alice@example.com"}
	bob   = model.Identity{UserID: "bob", Name: "Bob"}
)

// MockPublisher is a mock implementation of notify.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, n notify.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// noLock lets every caller through, leaving the version check as the only guard.
type noLock struct{}

func (noLock) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// timeoutLock never grants the lock.
type timeoutLock struct{}

func (timeoutLock) Lock(ctx context.Context, _ string) (func(), error) {
	return nil, lock.ErrTimeout
}

// brokenStore fails every read.
type brokenStore struct {
	repository.EventStore
}

var errDown = errors.New("connection refused")

func (brokenStore) GetByID(context.Context, string) (*model.Event, error) { return nil, errDown }

func (brokenStore) ListPublic(context.Context, string) ([]*model.Event, error) { return nil, errDown }

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T, store repository.EventStore, locker lock.Locker, pub notify.Publisher) *EventService {
	t.Helper()
	return NewEventService(store, locker, pub, zerolog.Nop(), Options{
		MaxRetries:  3,
		LockTimeout: time.Second,
	})
}

func eventPayload(capacity int) validation.EventPayload {
	return validation.EventPayload{
		Title:     "Launch party",
		StartDate: "2026-11-01T18:00:00Z",
		EndDate:   "2026-11-01T23:00:00Z",
		Capacity:  &capacity,
		IsPublic:  ptr(true),
		Sessions: []validation.SessionPayload{{
			Title:     "Welcome",
			StartTime: "2026-11-01T18:00:00Z",
			EndTime:   "2026-11-01T18:30:00Z",
		}},
	}
}

func TestCreateAndGetEvent(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), nil)
	ctx := context.Background()

	ev, err := svc.CreateEvent(ctx, alice, eventPayload(10))
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, ev.OrganizerID)
	assert.Equal(t, int64(1), ev.Version)
	require.Len(t, ev.Sessions, 1)

	got, err := svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)

	_, err = svc.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrEventNotFound)

	_, err = svc.CreateEvent(ctx, alice, validation.EventPayload{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestListings(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), nil)
	ctx := context.Background()

	ev, err := svc.CreateEvent(ctx, alice, eventPayload(0))
	require.NoError(t, err)

	owned, err := svc.ListOwnedEvents(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	public, err := svc.ListPublicEvents(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, public)

	public, err = svc.ListPublicEvents(ctx, bob)
	require.NoError(t, err)
	require.Len(t, public, 1)

	_, err = svc.JoinEvent(ctx, bob, ev.ID)
	require.NoError(t, err)
	joined, err := svc.ListJoinedEvents(ctx, bob)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, ev.ID, joined[0].ID)
}

func TestUpdateEvent(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), nil)
	ctx := context.Background()
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(2))
	require.NoError(t, err)

	_, err = svc.UpdateEvent(ctx, bob, ev.ID, validation.EventPatch{Title: ptr("mine now")})
	assert.ErrorIs(t, err, model.ErrNotAuthorized)

	updated, err := svc.UpdateEvent(ctx, alice, ev.ID, validation.EventPatch{Title: ptr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, int64(2), updated.Version)

	_, err = svc.JoinEvent(ctx, bob, ev.ID)
	require.NoError(t, err)
	_, err = svc.JoinEvent(ctx, model.Identity{UserID: "carol"}, ev.ID)
	require.NoError(t, err)

	_, err = svc.UpdateEvent(ctx, alice, ev.ID, validation.EventPatch{Capacity: ptr(1)})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPatchesCheckOwnershipBeforeValidation(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), nil)
	ctx := context.Background()
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(2))
	require.NoError(t, err)
	sessionID := ev.Sessions[0].ID

	_, err = svc.UpdateSession(ctx, bob, sessionID, validation.SessionPatch{EndTime: ptr("not-a-time")})
	assert.ErrorIs(t, err, model.ErrNotAuthorized)
	assert.NotErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.UpdateEvent(ctx, bob, ev.ID, validation.EventPatch{Capacity: ptr(-1)})
	assert.ErrorIs(t, err, model.ErrNotAuthorized)
	assert.NotErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.UpdateSession(ctx, alice, sessionID, validation.SessionPatch{EndTime: ptr("not-a-time")})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	got, err := svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Version, got.Version)
	assert.Equal(t, ev.Sessions, got.Sessions)
}

func TestJoinEvent_OrganizerRejected(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), nil)
	ctx := context.Background()
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(0))
	require.NoError(t, err)

	_, err = svc.JoinEvent(ctx, alice, ev.ID)
	assert.ErrorIs(t, err, model.ErrOrganizerJoin)

	joined, err := svc.ListJoinedEvents(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, joined)
}

func TestDeleteEvent(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), nil)
	ctx := context.Background()
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(0))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteEvent(ctx, bob, ev.ID), model.ErrNotAuthorized)
	_, err = svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(ctx, alice, ev.ID))
	_, err = svc.GetEvent(ctx, ev.ID)
	assert.ErrorIs(t, err, model.ErrEventNotFound)

	_, err = svc.UpdateSession(ctx, alice, ev.Sessions[0].ID, validation.SessionPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	assert.ErrorIs(t, svc.DeleteEvent(ctx, alice, ev.ID), model.ErrEventNotFound)
}

func TestJoinAndLeaveNotify(t *testing.T) {
	pub := new(MockPublisher)
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), pub)
	ctx := context.Background()
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(5))
	require.NoError(t, err)

	pub.On("Publish", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
		return n.Type == notify.ParticipantJoined && n.EventID == ev.ID && n.UserID == bob.UserID && n.ParticipantCount == 1
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
		return n.Type == notify.ParticipantLeft && n.ParticipantCount == 0 && n.Capacity == 5
	})).Return(errors.New("broker down")).Once()

	count, err := svc.JoinEvent(ctx, bob, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = svc.JoinEvent(ctx, bob, ev.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyMember)

	count, err = svc.LeaveEvent(ctx, bob, ev.ID)
	require.NoError(t, err, "publish failures must not fail the leave")
	assert.Equal(t, 0, count)

	count, err = svc.LeaveEvent(ctx, bob, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestJoinEvent_Full(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), nil)
	ctx := context.Background()
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(1))
	require.NoError(t, err)

	count, err := svc.JoinEvent(ctx, bob, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = svc.JoinEvent(ctx, model.Identity{UserID: "carol"}, ev.ID)
	assert.ErrorIs(t, err, model.ErrEventFull)

	got, err := svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantCount())

	_, err = svc.JoinEvent(ctx, bob, "missing")
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func concurrentJoins(t *testing.T, svc *EventService, eventID string, joiners int) (joined int, errs []error) {
	t.Helper()
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < joiners; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.JoinEvent(context.Background(), model.Identity{UserID: fmt.Sprintf("user-%d", i)}, eventID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				joined++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()
	return joined, errs
}

func TestJoinEvent_ConcurrentNeverOverbooks(t *testing.T) {
	const capacity, joiners = 5, 40
	ctx := context.Background()
	store := repository.NewMemoryEventRepository()
	svc := newService(t, store, lock.NewKeyedLocker(), nil)
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(capacity))
	require.NoError(t, err)

	joined, errs := concurrentJoins(t, svc, ev.ID, joiners)

	assert.Equal(t, capacity, joined)
	for _, err := range errs {
		assert.ErrorIs(t, err, model.ErrEventFull)
	}
	got, err := store.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, got.ParticipantCount())
}

func TestJoinEvent_VersionCheckAloneNeverOverbooks(t *testing.T) {
	const capacity, joiners = 5, 40
	ctx := context.Background()
	store := repository.NewMemoryEventRepository()
	svc := newService(t, store, noLock{}, nil)
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(capacity))
	require.NoError(t, err)

	joined, errs := concurrentJoins(t, svc, ev.ID, joiners)

	assert.LessOrEqual(t, joined, capacity)
	for _, err := range errs {
		assert.True(t, errors.Is(err, model.ErrEventFull) || errors.Is(err, model.ErrConflict), "unexpected error: %v", err)
	}
	got, err := store.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, joined, got.ParticipantCount())
	assert.LessOrEqual(t, got.ParticipantCount(), capacity)
}

func TestSessions(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), lock.NewKeyedLocker(), nil)
	ctx := context.Background()
	ev, err := svc.CreateEvent(ctx, alice, eventPayload(0))
	require.NoError(t, err)

	added, err := svc.AddSession(ctx, alice, ev.ID, validation.SessionPayload{
		Title:     "Panel",
		StartTime: "2026-11-01T19:00:00Z",
		EndTime:   "2026-11-01T20:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.AddSession(ctx, bob, ev.ID, validation.SessionPayload{
		Title:     "Crash",
		StartTime: "2026-11-01T19:00:00Z",
		EndTime:   "2026-11-01T20:00:00Z",
	})
	assert.ErrorIs(t, err, model.ErrNotAuthorized)

	updated, err := svc.UpdateSession(ctx, alice, added.ID, validation.SessionPatch{Speaker: ptr("Grace")})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.Speaker)
	assert.Equal(t, "Panel", updated.Title)

	_, err = svc.UpdateSession(ctx, alice, added.ID, validation.SessionPatch{EndTime: ptr("2026-11-01T18:00:00Z")})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.UpdateSession(ctx, bob, added.ID, validation.SessionPatch{Title: ptr("mine")})
	assert.ErrorIs(t, err, model.ErrNotAuthorized)

	assert.ErrorIs(t, svc.RemoveSession(ctx, bob, added.ID), model.ErrNotAuthorized)
	require.NoError(t, svc.RemoveSession(ctx, alice, ev.Sessions[0].ID))

	got, err := svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, got.Sessions, 1)
	assert.Equal(t, added.ID, got.Sessions[0].ID)
	assert.Equal(t, "Grace", got.Sessions[0].Speaker)

	assert.ErrorIs(t, svc.RemoveSession(ctx, alice, "missing"), model.ErrSessionNotFound)
}

func TestStorageFailuresAreUnavailable(t *testing.T) {
	svc := newService(t, brokenStore{}, lock.NewKeyedLocker(), nil)
	ctx := context.Background()

	_, err := svc.GetEvent(ctx, "any")
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.ErrorIs(t, err, errDown)

	_, err = svc.JoinEvent(ctx, bob, "any")
	assert.ErrorIs(t, err, model.ErrUnavailable)

	_, err = svc.ListPublicEvents(ctx, bob)
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestLockTimeoutIsRetryableConflict(t *testing.T) {
	svc := newService(t, repository.NewMemoryEventRepository(), timeoutLock{}, nil)

	_, err := svc.JoinEvent(context.Background(), bob, "any")
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.ErrorIs(t, err, lock.ErrTimeout)
}
