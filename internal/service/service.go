// Package service implements the event operations callers invoke. Each mutation is a
// read-modify-write cycle over one Event aggregate: lock the event id, fetch the whole
// event, apply one manager operation, and save it back with a version precondition.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/eventhub/internal/lock"
	"github.com/Shivanand-hulikatti/eventhub/internal/manager"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/notify"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/validation"
)

// Options tunes the mutation cycle.
type Options struct {
	// MaxRetries is how many fetch-mutate-save attempts run before ErrConflict surfaces.
	MaxRetries int
	// LockTimeout bounds the wait for the per-event lock.
	LockTimeout time.Duration
}

// EventService orchestrates event operations.
type EventService struct {
	events   repository.EventStore
	locker   lock.Locker
	notifier notify.Publisher
	log      zerolog.Logger
	opts     Options
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events repository.EventStore,
	locker lock.Locker,
	notifier notify.Publisher,
	log zerolog.Logger,
	opts Options,
) *EventService {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &EventService{events: events, locker: locker, notifier: notifier, log: log, opts: opts}
}

// CreateEvent validates the payload and stores a new event owned by caller.
func (s *EventService) CreateEvent(ctx context.Context, caller model.Identity, p validation.EventPayload) (*model.Event, error) {
	fields, err := validation.ValidateEvent(p)
	if err != nil {
		return nil, err
	}
	ev, err := model.NewEvent(caller, fields)
	if err != nil {
		return nil, err
	}
	stored, err := s.events.Create(ctx, ev)
	if err != nil {
		return nil, s.storeErr(err)
	}
	s.log.Info().Str("event_id", stored.ID).Str("organizer_id", caller.UserID).Msg("event created")
	return stored, nil
}

// ListOwnedEvents returns the caller's events, newest first.
func (s *EventService) ListOwnedEvents(ctx context.Context, caller model.Identity) ([]*model.Event, error) {
	events, err := s.events.ListByOrganizer(ctx, caller.UserID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return events, nil
}

// ListPublicEvents returns public events organized by someone else, newest first.
func (s *EventService) ListPublicEvents(ctx context.Context, caller model.Identity) ([]*model.Event, error) {
	events, err := s.events.ListPublic(ctx, caller.UserID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return events, nil
}

// ListJoinedEvents returns the events the caller is a participant of, newest first.
func (s *EventService) ListJoinedEvents(ctx context.Context, caller model.Identity) ([]*model.Event, error) {
	events, err := s.events.ListByParticipant(ctx, caller.UserID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return events, nil
}

// GetEvent returns a single event by id.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, model.Invalid("id", "event id is required", nil)
	}
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return ev, nil
}

// UpdateEvent applies an organizer's patch. Ownership is checked before the patch is
// validated.
func (s *EventService) UpdateEvent(ctx context.Context, caller model.Identity, id string, p validation.EventPatch) (*model.Event, error) {
	saved, err := s.mutate(ctx, id, func(ev *model.Event) error {
		if !ev.IsOwnedBy(caller.UserID) {
			return model.ErrNotAuthorized
		}
		patch, err := validation.ValidateEventPatch(p)
		if err != nil {
			return err
		}
		return ev.ApplyPatch(patch)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("event_id", id).Msg("event updated")
	return saved, nil
}

// DeleteEvent removes an event and everything it owns. Only the organizer may do so.
func (s *EventService) DeleteEvent(ctx context.Context, caller model.Identity, id string) error {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return s.storeErr(err)
	}
	if !ev.IsOwnedBy(caller.UserID) {
		return model.ErrNotAuthorized
	}
	deleted, err := s.events.DeleteByID(ctx, id)
	if err != nil {
		return s.storeErr(err)
	}
	if !deleted {
		return model.ErrEventNotFound
	}
	s.log.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

// JoinEvent adds caller to the roster and returns the participant count.
func (s *EventService) JoinEvent(ctx context.Context, caller model.Identity, id string) (int, error) {
	saved, err := s.mutate(ctx, id, func(ev *model.Event) error {
		_, err := manager.Join(ev, caller)
		return err
	})
	if err != nil {
		return 0, err
	}
	count := saved.ParticipantCount()
	s.log.Info().Str("event_id", id).Str("user_id", caller.UserID).Int("participants", count).Msg("participant joined")
	s.announce(ctx, notify.ParticipantJoined, saved, caller.UserID)
	return count, nil
}

// LeaveEvent removes caller from the roster and returns the participant count. It
// succeeds even when caller was not a participant.
func (s *EventService) LeaveEvent(ctx context.Context, caller model.Identity, id string) (int, error) {
	var wasMember bool
	saved, err := s.mutate(ctx, id, func(ev *model.Event) error {
		wasMember = ev.HasParticipant(caller.UserID)
		manager.Leave(ev, caller.UserID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	count := saved.ParticipantCount()
	if wasMember {
		s.log.Info().Str("event_id", id).Str("user_id", caller.UserID).Int("participants", count).Msg("participant left")
		s.announce(ctx, notify.ParticipantLeft, saved, caller.UserID)
	}
	return count, nil
}

// AddSession appends a session to the caller's event.
func (s *EventService) AddSession(ctx context.Context, caller model.Identity, eventID string, p validation.SessionPayload) (*model.Session, error) {
	var added *model.Session
	_, err := s.mutate(ctx, eventID, func(ev *model.Event) error {
		var err error
		added, err = manager.AddSession(ev, caller.UserID, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("event_id", eventID).Str("session_id", added.ID).Msg("session added")
	return added, nil
}

// UpdateSession patches a session of one of the caller's events.
func (s *EventService) UpdateSession(ctx context.Context, caller model.Identity, sessionID string, p validation.SessionPatch) (*model.Session, error) {
	eventID, err := s.eventOfSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var updated *model.Session
	_, err = s.mutate(ctx, eventID, func(ev *model.Event) error {
		if !ev.IsOwnedBy(caller.UserID) {
			return model.ErrNotAuthorized
		}
		patch, err := validation.ValidateSessionPatch(p)
		if err != nil {
			return err
		}
		updated, err = manager.UpdateSession(ev, caller.UserID, sessionID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("event_id", eventID).Str("session_id", sessionID).Msg("session updated")
	return updated, nil
}

// RemoveSession deletes a session of one of the caller's events.
func (s *EventService) RemoveSession(ctx context.Context, caller model.Identity, sessionID string) error {
	eventID, err := s.eventOfSession(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = s.mutate(ctx, eventID, func(ev *model.Event) error {
		return manager.RemoveSession(ev, caller.UserID, sessionID)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("event_id", eventID).Str("session_id", sessionID).Msg("session removed")
	return nil
}

// eventOfSession finds the event that owns sessionID.
func (s *EventService) eventOfSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", model.Invalid("sessionId", "session id is required", nil)
	}
	ev, err := s.events.FindBySessionID(ctx, sessionID)
	if err != nil {
		return "", s.storeErr(err)
	}
	return ev.ID, nil
}

// mutate runs apply against a freshly fetched copy of the event while holding the
// event's lock, then saves it. A version conflict means a writer outside this lock
// domain got there first; the cycle restarts from a new read. apply must be safe to
// run more than once.
func (s *EventService) mutate(ctx context.Context, eventID string, apply func(*model.Event) error) (*model.Event, error) {
	if eventID == "" {
		return nil, model.Invalid("id", "event id is required", nil)
	}
	release, err := s.acquire(ctx, eventID)
	if err != nil {
		return nil, err
	}
	defer release()

	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		ev, err := s.events.GetByID(ctx, eventID)
		if err != nil {
			return nil, s.storeErr(err)
		}
		if err := apply(ev); err != nil {
			return nil, err
		}
		saved, err := s.events.Save(ctx, ev)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			return nil, s.storeErr(err)
		}
		s.log.Debug().Str("event_id", eventID).Int("attempt", attempt).Msg("version conflict, retrying")
	}
	return nil, model.ErrConflict
}

func (s *EventService) acquire(ctx context.Context, eventID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()

	release, err := s.locker.Lock(lockCtx, eventID)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, fmt.Errorf("%w: %w", model.ErrConflict, err)
		}
		s.log.Error().Err(err).Str("event_id", eventID).Msg("lock failed")
		return nil, fmt.Errorf("%w: %w", model.ErrUnavailable, err)
	}
	return release, nil
}

// storeErr passes domain errors through and marks everything else as unavailability.
func (s *EventService) storeErr(err error) error {
	if model.IsDomainError(err) {
		return err
	}
	s.log.Error().Err(err).Msg("storage failure")
	return fmt.Errorf("%w: %w", model.ErrUnavailable, err)
}

// announce publishes a roster notification. Delivery failures are logged only; the
// change is already committed.
func (s *EventService) announce(ctx context.Context, kind string, ev *model.Event, userID string) {
	n := notify.Notification{
		Type:             kind,
		EventID:          ev.ID,
		UserID:           userID,
		ParticipantCount: ev.ParticipantCount(),
		Capacity:         ev.Capacity,
		OccurredAt:       ev.UpdatedAt,
	}
	if err := s.notifier.Publish(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("event_id", ev.ID).Str("type", kind).Msg("failed to publish notification")
	}
}
