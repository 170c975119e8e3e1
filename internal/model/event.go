package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func now() time.Time {
	return time.Now().UTC()
}

// NewEvent builds a fresh aggregate owned by owner. Fields are expected to come out of
// the validation layer; the checks here only guard the invariants.
func NewEvent(owner Identity, f EventFields) (*Event, error) {
	ve := &ValidationError{}
	if owner.UserID == "" {
		ve.Add("organizerId", "organizer is required", nil)
	}
	title := strings.TrimSpace(f.Title)
	if title == "" {
		ve.Add("title", "title is required", f.Title)
	}
	if f.StartDate.IsZero() {
		ve.Add("startDate", "startDate is required", nil)
	}
	if f.EndDate.IsZero() {
		ve.Add("endDate", "endDate is required", nil)
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		ve.Add("endDate", "endDate must not be before startDate", f.EndDate)
	}
	if f.Capacity < 0 {
		ve.Add("capacity", "capacity must be zero or greater", f.Capacity)
	}
	if f.Price < 0 {
		ve.Add("price", "price must be zero or greater", f.Price)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	ts := now()
	e := &Event{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    f.Description,
		StartDate:      f.StartDate.UTC(),
		EndDate:        f.EndDate.UTC(),
		Location:       orDefault(f.Location, DefaultLocation),
		Capacity:       f.Capacity,
		Price:          f.Price,
		Image:          f.Image,
		OrganizerID:    owner.UserID,
		OrganizerName:  owner.Name,
		OrganizerEmail: owner.Email,
		IsPublic:       f.IsPublic,
		Tags:           copyTags(f.Tags),
		Sessions:       make([]Session, 0, len(f.Sessions)),
		Participants:   []Participant{},
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	for i, sf := range f.Sessions {
		if sf.EndTime.Before(sf.StartTime) {
			return nil, Invalid("sessions["+strconv.Itoa(i)+"].endTime", "endTime must not be before startTime", sf.EndTime)
		}
		e.Sessions = append(e.Sessions, NewSession(sf))
	}
	return e, nil
}

// NewSession assigns a fresh identifier and applies defaults.
func NewSession(f SessionFields) Session {
	return Session{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		StartTime:   f.StartTime.UTC(),
		EndTime:     f.EndTime.UTC(),
		Speaker:     orDefault(f.Speaker, DefaultSpeaker),
		Room:        orDefault(f.Room, DefaultRoom),
		Tags:        copyTags(f.Tags),
	}
}

// Touch marks the event as modified. UpdatedAt never moves backwards.
func (e *Event) Touch() {
	ts := now()
	if ts.Before(e.UpdatedAt) {
		return
	}
	e.UpdatedAt = ts
}

// IsOwnedBy reports whether userID is the organizer.
func (e *Event) IsOwnedBy(userID string) bool {
	return userID != "" && e.OrganizerID == userID
}

// ParticipantCount returns the roster size.
func (e *Event) ParticipantCount() int {
	return len(e.Participants)
}

// Unbounded reports whether the event has no capacity limit. A capacity of zero means
// no limit; any positive value is a real one.
func (e *Event) Unbounded() bool {
	return e.Capacity <= 0
}

// Full reports whether another participant would exceed capacity.
func (e *Event) Full() bool {
	return !e.Unbounded() && len(e.Participants) >= e.Capacity
}

// HasParticipant reports whether userID is on the roster.
func (e *Event) HasParticipant(userID string) bool {
	for _, p := range e.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// FindSession returns the index of the session with the given id.
func (e *Event) FindSession(id string) (int, bool) {
	for i, s := range e.Sessions {
		if s.ID == id {
			return i, true
		}
	}
	return -1, false
}

// ApplyPatch merges p into the event after checking the merged result against the
// aggregate invariants. On error the event is unchanged.
func (e *Event) ApplyPatch(p EventPatch) error {
	next := e.Clone()
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.StartDate != nil {
		next.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		next.EndDate = p.EndDate.UTC()
	}
	if p.Location != nil {
		next.Location = orDefault(*p.Location, DefaultLocation)
	}
	if p.Capacity != nil {
		next.Capacity = *p.Capacity
	}
	if p.Price != nil {
		next.Price = *p.Price
	}
	if p.Image != nil {
		next.Image = *p.Image
	}
	if p.IsPublic != nil {
		next.IsPublic = *p.IsPublic
	}
	if p.Tags != nil {
		next.Tags = copyTags(p.Tags)
	}

	ve := &ValidationError{}
	if next.Title == "" {
		ve.Add("title", "title is required", next.Title)
	}
	if next.EndDate.Before(next.StartDate) {
		ve.Add("endDate", "endDate must not be before startDate", next.EndDate)
	}
	if next.Capacity < 0 {
		ve.Add("capacity", "capacity must be zero or greater", next.Capacity)
	} else if next.Capacity > 0 && len(next.Participants) > next.Capacity {
		ve.Add("capacity", "capacity is below the current number of participants", next.Capacity)
	}
	if next.Price < 0 {
		ve.Add("price", "price must be zero or greater", next.Price)
	}
	if err := ve.OrNil(); err != nil {
		return err
	}

	*e = *next
	e.Touch()
	return nil
}

// Clone returns a deep copy.
func (e *Event) Clone() *Event {
	c := *e
	c.Tags = copyTags(e.Tags)
	c.Sessions = make([]Session, len(e.Sessions))
	for i, s := range e.Sessions {
		c.Sessions[i] = s.Clone()
	}
	c.Participants = make([]Participant, len(e.Participants))
	copy(c.Participants, e.Participants)
	return &c
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	s.Tags = copyTags(s.Tags)
	return s
}

func copyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
