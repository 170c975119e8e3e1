// Package repository persists Event aggregates as whole documents.
package repository

import (
	"context"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// EventStore reads and writes one Event aggregate at a time. Save is a whole-document
// overwrite guarded by the event's Version: it fails with model.ErrConflict when the
// stored version no longer matches the one that was read.
type EventStore interface {
	Create(ctx context.Context, ev *model.Event) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Save(ctx context.Context, ev *model.Event) (*model.Event, error)
	DeleteByID(ctx context.Context, id string) (bool, error)

	// Listings are ordered newest-created first.
	ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error)
	ListPublic(ctx context.Context, excludeOrganizerID string) ([]*model.Event, error)
	ListByParticipant(ctx context.Context, userID string) ([]*model.Event, error)

	// FindBySessionID returns the event whose session sequence contains sessionID.
	FindBySessionID(ctx context.Context, sessionID string) (*model.Event, error)
}
