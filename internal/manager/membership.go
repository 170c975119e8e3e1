// Package manager implements the mutations of an Event's roster and schedule. Every
// function works on one in-memory aggregate, checks all of its preconditions before
// touching it, and leaves it unchanged on error. Persisting the result is the caller's job.
package manager

import (
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// Join adds caller to the roster and returns the new participant count.
func Join(ev *model.Event, caller model.Identity) (int, error) {
	if caller.UserID == "" {
		return ev.ParticipantCount(), model.Invalid("userId", "caller identity is required", nil)
	}
	if ev.IsOwnedBy(caller.UserID) {
		return ev.ParticipantCount(), model.ErrOrganizerJoin
	}
	if ev.HasParticipant(caller.UserID) {
		return ev.ParticipantCount(), model.ErrAlreadyMember
	}
	if ev.Full() {
		return ev.ParticipantCount(), model.ErrEventFull
	}

	name := strings.TrimSpace(caller.Name)
	if name == "" {
		name = model.DefaultParticipantName
	}
	ev.Participants = append(ev.Participants, model.Participant{
		UserID:       caller.UserID,
		UserName:     name,
		UserEmail:    caller.Email,
		RegisteredAt: time.Now().UTC(),
	})
	ev.Touch()
	return ev.ParticipantCount(), nil
}

// Leave removes userID from the roster and returns the resulting count. Leaving an event
// the caller never joined is not an error.
func Leave(ev *model.Event, userID string) int {
	kept := make([]model.Participant, 0, len(ev.Participants))
	for _, p := range ev.Participants {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	ev.Participants = kept
	ev.Touch()
	return ev.ParticipantCount()
}
