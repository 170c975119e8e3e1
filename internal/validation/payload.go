package validation

import (
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// EventPayload is the raw body of an event creation request. Unknown JSON fields are
// dropped by the decoder.
type EventPayload struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	StartDate   string           `json:"startDate" validate:"required,timestamp"`
	EndDate     string           `json:"endDate" validate:"required,timestamp"`
	Location    string           `json:"location"`
	Capacity    *int             `json:"capacity" validate:"omitempty,gte=0"`
	Price       *float64         `json:"price" validate:"omitempty,gte=0"`
	Image       string           `json:"image"`
	IsPublic    *bool            `json:"isPublic"`
	Tags        []string         `json:"tags"`
	Sessions    []SessionPayload `json:"sessions" validate:"omitempty,dive"`
}

// SessionPayload is the raw body of a session creation request.
type SessionPayload struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	StartTime   string   `json:"startTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime     string   `json:"endTime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Speaker     string   `json:"speaker"`
	Room        string   `json:"room"`
	Tags        []string `json:"tags"`
}

// EventPatch is the raw body of an event update. Absent fields stay unchanged.
type EventPatch struct {
	Title       *string   `json:"title" validate:"omitempty,min=1"`
	Description *string   `json:"description"`
	StartDate   *string   `json:"startDate" validate:"omitempty,timestamp"`
	EndDate     *string   `json:"endDate" validate:"omitempty,timestamp"`
	Location    *string   `json:"location"`
	Capacity    *int      `json:"capacity" validate:"omitempty,gte=0"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Image       *string   `json:"image"`
	IsPublic    *bool     `json:"isPublic"`
	Tags        *[]string `json:"tags"`
}

// SessionPatch is the raw body of a session update. Absent fields stay unchanged; the
// identifier is not part of it and cannot be changed.
type SessionPatch struct {
	Title       *string   `json:"title" validate:"omitempty,min=1"`
	Description *string   `json:"description"`
	StartTime   *string   `json:"startTime" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime     *string   `json:"endTime" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Speaker     *string   `json:"speaker"`
	Room        *string   `json:"room"`
	Tags        *[]string `json:"tags"`
}

// ValidateEvent checks an event creation payload, including its embedded sessions.
func ValidateEvent(p EventPayload) (model.EventFields, error) {
	p.Title = strings.TrimSpace(p.Title)
	for i := range p.Sessions {
		p.Sessions[i].Title = strings.TrimSpace(p.Sessions[i].Title)
	}

	ve := &model.ValidationError{}
	collect(ve, p, "")

	start, okStart := ParseTimestamp(p.StartDate)
	end, okEnd := ParseTimestamp(p.EndDate)
	if okStart && okEnd && end.Before(start) {
		ve.Add("endDate", endBefore("startDate"), p.EndDate)
	}

	sessions := make([]model.SessionFields, 0, len(p.Sessions))
	for i, sp := range p.Sessions {
		sf, ok := sessionTimes(ve, sp, fmt.Sprintf("sessions[%d].", i))
		if ok {
			sessions = append(sessions, sf)
		}
	}

	if err := ve.OrNil(); err != nil {
		return model.EventFields{}, err
	}

	f := model.EventFields{
		Title:       p.Title,
		Description: p.Description,
		StartDate:   start,
		EndDate:     end,
		Location:    strings.TrimSpace(p.Location),
		Image:       p.Image,
		Tags:        p.Tags,
		Sessions:    sessions,
	}
	if p.Capacity != nil {
		f.Capacity = *p.Capacity
	}
	if p.Price != nil {
		f.Price = *p.Price
	}
	if p.IsPublic != nil {
		f.IsPublic = *p.IsPublic
	}
	return f, nil
}

// ValidateSession checks a standalone session payload.
func ValidateSession(p SessionPayload) (model.SessionFields, error) {
	p.Title = strings.TrimSpace(p.Title)
	ve := &model.ValidationError{}
	collect(ve, p, "")
	sf, _ := sessionTimes(ve, p, "")
	if err := ve.OrNil(); err != nil {
		return model.SessionFields{}, err
	}
	return sf, nil
}

// sessionTimes parses the session times and checks their order. Struct-level violations
// are already in ve; ok is false when the times could not be used.
func sessionTimes(ve *model.ValidationError, p SessionPayload, prefix string) (model.SessionFields, bool) {
	start, okStart := ParseStrict(p.StartTime)
	end, okEnd := ParseStrict(p.EndTime)
	if !okStart || !okEnd {
		return model.SessionFields{}, false
	}
	if end.Before(start) {
		ve.Add(prefix+"endTime", endBefore("startTime"), p.EndTime)
		return model.SessionFields{}, false
	}
	return model.SessionFields{
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		StartTime:   start,
		EndTime:     end,
		Speaker:     strings.TrimSpace(p.Speaker),
		Room:        strings.TrimSpace(p.Room),
		Tags:        p.Tags,
	}, true
}

// ValidateEventPatch checks the fields present in an event update. Cross-field rules
// that depend on the stored event are enforced by the aggregate.
func ValidateEventPatch(p EventPatch) (model.EventPatch, error) {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
	ve := &model.ValidationError{}
	collect(ve, p, "")
	if err := ve.OrNil(); err != nil {
		return model.EventPatch{}, err
	}

	out := model.EventPatch{
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		Capacity:    p.Capacity,
		Price:       p.Price,
		Image:       p.Image,
		IsPublic:    p.IsPublic,
	}
	if p.StartDate != nil {
		t, _ := ParseTimestamp(*p.StartDate)
		out.StartDate = &t
	}
	if p.EndDate != nil {
		t, _ := ParseTimestamp(*p.EndDate)
		out.EndDate = &t
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, (*p.Tags)...)
	}
	return out, nil
}

// ValidateSessionPatch checks the fields present in a session update. The order of
// start and end is checked against the merged session by the session manager.
func ValidateSessionPatch(p SessionPatch) (model.SessionPatch, error) {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
	ve := &model.ValidationError{}
	collect(ve, p, "")
	if err := ve.OrNil(); err != nil {
		return model.SessionPatch{}, err
	}

	out := model.SessionPatch{
		Title:       p.Title,
		Description: p.Description,
		Speaker:     p.Speaker,
		Room:        p.Room,
	}
	if p.StartTime != nil {
		t, _ := ParseStrict(*p.StartTime)
		out.StartTime = &t
	}
	if p.EndTime != nil {
		t, _ := ParseStrict(*p.EndTime)
		out.EndTime = &t
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, (*p.Tags)...)
	}
	return out, nil
}
