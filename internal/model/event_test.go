package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var owner = Identity{UserID: "u-owner", Name: "Olivia", Email: "olivia@example.com"}

func ptr[T any](v T) *T { return &v }

func validFields() EventFields {
	start := time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)
	return EventFields{
		Title:     "GopherCon",
		StartDate: start,
		EndDate:   start.Add(8 * time.Hour),
		Capacity:  2,
	}
}

func TestNewEvent_Defaults(t *testing.T) {
	f := validFields()
	f.Sessions = []SessionFields{{
		Title:     "Keynote",
		StartTime: f.StartDate,
		EndTime:   f.StartDate.Add(time.Hour),
	}}

	ev, err := NewEvent(owner, f)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, owner.UserID, ev.OrganizerID)
	assert.Equal(t, owner.Name, ev.OrganizerName)
	assert.Equal(t, DefaultLocation, ev.Location)
	assert.False(t, ev.IsPublic)
	assert.NotNil(t, ev.Tags)
	assert.Empty(t, ev.Participants)
	assert.NotNil(t, ev.Participants)
	assert.Equal(t, ev.CreatedAt, ev.UpdatedAt)

	require.Len(t, ev.Sessions, 1)
	s := ev.Sessions[0]
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, DefaultSpeaker, s.Speaker)
	assert.Equal(t, DefaultRoom, s.Room)
}

func TestNewEvent_CollectsEveryViolation(t *testing.T) {
	f := validFields()
	f.Title = "   "
	f.EndDate = f.StartDate.Add(-time.Hour)
	f.Capacity = -1
	f.Price = -5

	_, err := NewEvent(Identity{}, f)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	fields := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"organizerId", "title", "endDate", "capacity", "price"}, fields)
}

func TestNewEvent_SessionEndBeforeStart(t *testing.T) {
	f := validFields()
	f.Sessions = []SessionFields{
		{Title: "ok", StartTime: f.StartDate, EndTime: f.StartDate},
		{Title: "bad", StartTime: f.StartDate, EndTime: f.StartDate.Add(-time.Minute)},
	}

	_, err := NewEvent(owner, f)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "sessions[1].endTime", ve.Errors[0].Field)
}

func TestEvent_Full(t *testing.T) {
	ev, err := NewEvent(owner, validFields())
	require.NoError(t, err)

	assert.False(t, ev.Full())
	ev.Participants = append(ev.Participants, Participant{UserID: "a"}, Participant{UserID: "b"})
	assert.True(t, ev.Full())

	ev.Capacity = 0
	assert.True(t, ev.Unbounded())
	assert.False(t, ev.Full())
}

func TestEvent_TouchNeverMovesBackwards(t *testing.T) {
	ev, err := NewEvent(owner, validFields())
	require.NoError(t, err)

	future := time.Now().Add(time.Hour).UTC()
	ev.UpdatedAt = future
	ev.Touch()
	assert.Equal(t, future, ev.UpdatedAt)

	ev.UpdatedAt = time.Time{}
	ev.Touch()
	assert.False(t, ev.UpdatedAt.IsZero())
}

func TestEvent_ApplyPatch(t *testing.T) {
	ev, err := NewEvent(owner, validFields())
	require.NoError(t, err)
	before := ev.UpdatedAt

	err = ev.ApplyPatch(EventPatch{
		Title:    ptr("  Renamed  "),
		IsPublic: ptr(true),
		Tags:     []string{"go"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", ev.Title)
	assert.True(t, ev.IsPublic)
	assert.Equal(t, []string{"go"}, ev.Tags)
	assert.False(t, ev.UpdatedAt.Before(before))
}

func TestEvent_ApplyPatchRejectsCapacityBelowRoster(t *testing.T) {
	ev, err := NewEvent(owner, validFields())
	require.NoError(t, err)
	ev.Participants = []Participant{{UserID: "a"}, {UserID: "b"}}
	snapshot := ev.Clone()

	err = ev.ApplyPatch(EventPatch{Capacity: ptr(1), Title: ptr("changed")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, snapshot, ev)

	require.NoError(t, ev.ApplyPatch(EventPatch{Capacity: ptr(0)}))
	assert.True(t, ev.Unbounded())
}

func TestEvent_ApplyPatchChecksMergedDates(t *testing.T) {
	ev, err := NewEvent(owner, validFields())
	require.NoError(t, err)

	err = ev.ApplyPatch(EventPatch{EndDate: ptr(ev.StartDate.Add(-time.Minute))})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "endDate", ve.Errors[0].Field)
}

func TestEvent_CloneIsDeep(t *testing.T) {
	f := validFields()
	f.Tags = []string{"a"}
	f.Sessions = []SessionFields{{Title: "s", StartTime: f.StartDate, EndTime: f.EndDate, Tags: []string{"x"}}}
	ev, err := NewEvent(owner, f)
	require.NoError(t, err)
	ev.Participants = []Participant{{UserID: "p"}}

	c := ev.Clone()
	c.Tags[0] = "changed"
	c.Sessions[0].Tags[0] = "changed"
	c.Sessions[0].Title = "changed"
	c.Participants[0].UserID = "changed"

	assert.Equal(t, "a", ev.Tags[0])
	assert.Equal(t, "x", ev.Sessions[0].Tags[0])
	assert.Equal(t, "s", ev.Sessions[0].Title)
	assert.Equal(t, "p", ev.Participants[0].UserID)
}

func TestErrors_Kinds(t *testing.T) {
	assert.True(t, IsNotFound(ErrEventNotFound))
	assert.True(t, IsNotFound(ErrSessionNotFound))
	assert.False(t, errors.Is(ErrEventNotFound, ErrSessionNotFound))

	assert.True(t, IsDomainError(Invalid("x", "bad", nil)))
	assert.True(t, IsDomainError(ErrEventFull))
	assert.False(t, IsDomainError(errors.New("connection reset")))
	assert.False(t, IsDomainError(ErrUnavailable))

	var empty *ValidationError
	assert.NoError(t, empty.OrNil())
	assert.Equal(t, "invalid input: title: required", Invalid("title", "required", nil).Error())
}
