// Package notify announces roster changes to other services.
package notify

import (
	"context"
	"time"
)

// Notification kinds, also used as routing keys.
const (
	ParticipantJoined = "participant.joined"
	ParticipantLeft   = "participant.left"
)

// Notification describes one committed roster change.
type Notification struct {
	Type             string    `json:"type"`
	EventID          string    `json:"eventId"`
	UserID           string    `json:"userId"`
	ParticipantCount int       `json:"participantCount"`
	Capacity         int       `json:"capacity"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// Publisher delivers notifications. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Noop drops every notification.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Notification) error { return nil }
