package manager

import (
	"strings"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/validation"
)

// AddSession validates p and appends it to the organizer's event.
func AddSession(ev *model.Event, callerID string, p validation.SessionPayload) (*model.Session, error) {
	if !ev.IsOwnedBy(callerID) {
		return nil, model.ErrNotAuthorized
	}
	fields, err := validation.ValidateSession(p)
	if err != nil {
		return nil, err
	}

	s := model.NewSession(fields)
	ev.Sessions = append(ev.Sessions, s)
	ev.Touch()
	out := s.Clone()
	return &out, nil
}

// UpdateSession merges patch over the session with the given id. The merged session
// must still end no earlier than it starts.
func UpdateSession(ev *model.Event, callerID, sessionID string, patch model.SessionPatch) (*model.Session, error) {
	if !ev.IsOwnedBy(callerID) {
		return nil, model.ErrNotAuthorized
	}
	idx, ok := ev.FindSession(sessionID)
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	next := ev.Sessions[idx].Clone()
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.StartTime != nil {
		next.StartTime = patch.StartTime.UTC()
	}
	if patch.EndTime != nil {
		next.EndTime = patch.EndTime.UTC()
	}
	if patch.Speaker != nil {
		next.Speaker = defaulted(*patch.Speaker, model.DefaultSpeaker)
	}
	if patch.Room != nil {
		next.Room = defaulted(*patch.Room, model.DefaultRoom)
	}
	if patch.Tags != nil {
		next.Tags = append([]string{}, patch.Tags...)
	}

	ve := &model.ValidationError{}
	if next.Title == "" {
		ve.Add("title", "field is required", next.Title)
	}
	if next.EndTime.Before(next.StartTime) {
		ve.Add("endTime", "must not be before startTime", next.EndTime)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	ev.Sessions[idx] = next
	ev.Touch()
	out := next.Clone()
	return &out, nil
}

// RemoveSession deletes the session with the given id from the organizer's event.
func RemoveSession(ev *model.Event, callerID, sessionID string) error {
	if !ev.IsOwnedBy(callerID) {
		return model.ErrNotAuthorized
	}
	idx, ok := ev.FindSession(sessionID)
	if !ok {
		return model.ErrSessionNotFound
	}

	sessions := make([]model.Session, 0, len(ev.Sessions)-1)
	sessions = append(sessions, ev.Sessions[:idx]...)
	sessions = append(sessions, ev.Sessions[idx+1:]...)
	ev.Sessions = sessions
	ev.Touch()
	return nil
}

func defaulted(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
