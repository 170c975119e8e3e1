package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// MemoryEventRepository implements EventStore in process memory. Events are copied on
// the way in and out, so callers never share state with the store.
// Useful for tests and local development.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]*model.Event
}

// NewMemoryEventRepository creates an empty store.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]*model.Event)}
}

var _ EventStore = (*MemoryEventRepository)(nil)

// Create stores a new event at version 1.
func (r *MemoryEventRepository) Create(ctx context.Context, ev *model.Event) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[ev.ID]; exists {
		return nil, model.ErrConflict
	}
	stored := ev.Clone()
	stored.Version = 1
	r.events[stored.ID] = stored
	return stored.Clone(), nil
}

// GetByID returns a copy of the event or model.ErrEventNotFound.
func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return ev.Clone(), nil
}

// Save replaces the stored event when ev.Version matches.
func (r *MemoryEventRepository) Save(ctx context.Context, ev *model.Event) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.events[ev.ID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	if current.Version != ev.Version {
		return nil, model.ErrConflict
	}
	stored := ev.Clone()
	stored.Version = ev.Version + 1
	r.events[stored.ID] = stored
	return stored.Clone(), nil
}

// DeleteByID removes the event if present.
func (r *MemoryEventRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return false, nil
	}
	delete(r.events, id)
	return true, nil
}

// ListByOrganizer returns the events created by organizerID.
func (r *MemoryEventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error) {
	return r.filter(func(ev *model.Event) bool { return ev.OrganizerID == organizerID }), nil
}

// ListPublic returns public events not created by excludeOrganizerID.
func (r *MemoryEventRepository) ListPublic(ctx context.Context, excludeOrganizerID string) ([]*model.Event, error) {
	return r.filter(func(ev *model.Event) bool {
		return ev.IsPublic && ev.OrganizerID != excludeOrganizerID
	}), nil
}

// ListByParticipant returns the events whose roster contains userID.
func (r *MemoryEventRepository) ListByParticipant(ctx context.Context, userID string) ([]*model.Event, error) {
	return r.filter(func(ev *model.Event) bool { return ev.HasParticipant(userID) }), nil
}

// FindBySessionID returns the event owning sessionID.
func (r *MemoryEventRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ev := range r.events {
		if _, ok := ev.FindSession(sessionID); ok {
			return ev.Clone(), nil
		}
	}
	return nil, model.ErrSessionNotFound
}

func (r *MemoryEventRepository) filter(keep func(*model.Event) bool) []*model.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Event{}
	for _, ev := range r.events {
		if keep(ev) {
			out = append(out, ev.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
