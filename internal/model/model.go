// Package model defines the Event aggregate and the records it owns.
package model

import "time"

// Defaults applied when a field is omitted.
const (
	DefaultLocation        = "TBD"
	DefaultSpeaker         = "TBD"
	DefaultRoom            = "TBD"
	DefaultParticipantName = "Anonymous"
)

// Event is the root aggregate. Sessions and Participants live only inside it.
type Event struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	StartDate      time.Time     `json:"startDate"`
	EndDate        time.Time     `json:"endDate"`
	Location       string        `json:"location"`
	Capacity       int           `json:"capacity"`
	Price          float64       `json:"price"`
	Image          string        `json:"image"`
	OrganizerID    string        `json:"organizerId"`
	OrganizerName  string        `json:"organizerName"`
	OrganizerEmail string        `json:"organizerEmail"`
	IsPublic       bool          `json:"isPublic"`
	Tags           []string      `json:"tags"`
	Sessions       []Session     `json:"sessions"`
	Participants   []Participant `json:"participants"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`

	// Version is the revision token checked on save.
	Version int64 `json:"version"`
}

// Session is a scheduled slot inside an Event.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Speaker     string    `json:"speaker"`
	Room        string    `json:"room"`
	Tags        []string  `json:"tags"`
}

// Participant is one entry of an Event's roster.
type Participant struct {
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	UserEmail    string    `json:"userEmail"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Identity is the caller resolved by the auth layer.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// EventFields is a validated event creation payload.
type EventFields struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
	Capacity    int
	Price       float64
	Image       string
	IsPublic    bool
	Tags        []string
	Sessions    []SessionFields
}

// SessionFields is a validated session payload.
type SessionFields struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Speaker     string
	Room        string
	Tags        []string
}

// EventPatch holds the organizer-editable fields of an Event. Nil means unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Location    *string
	Capacity    *int
	Price       *float64
	Image       *string
	IsPublic    *bool
	Tags        []string
}

// SessionPatch holds the editable fields of a Session. Nil means unchanged.
type SessionPatch struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Speaker     *string
	Room        *string
	Tags        []string
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error     string       `json:"error"`
	Details   []FieldError `json:"details,omitempty"`
	Retryable bool         `json:"retryable,omitempty"`
}
