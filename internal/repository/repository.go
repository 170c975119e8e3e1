package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// EventRepository stores each Event as one JSONB document in the events table. The
// columns next to the document only serve lookups and the version precondition.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

var _ EventStore = (*EventRepository)(nil)

const selectEvent = `SELECT doc, version FROM events`

// Create inserts a new event at version 1.
func (r *EventRepository) Create(ctx context.Context, ev *model.Event) (*model.Event, error) {
	stored := ev.Clone()
	stored.Version = 1

	doc, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO events (id, organizer_id, is_public, created_at, version, doc)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		stored.ID, stored.OrganizerID, stored.IsPublic, stored.CreatedAt, stored.Version, doc,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return stored, nil
}

// GetByID returns a single event or model.ErrEventNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	ev, err := scanEvent(r.db.QueryRow(ctx, selectEvent+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// Save overwrites the stored document if its version still equals ev.Version.
//
// The WHERE clause on version turns the write into a compare-and-swap: two writers that
// read the same version cannot both succeed, so a capacity check made on a stale read
// can never reach the table.
func (r *EventRepository) Save(ctx context.Context, ev *model.Event) (*model.Event, error) {
	stored := ev.Clone()
	stored.Version = ev.Version + 1

	doc, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET doc = $1, is_public = $2, version = $3
		 WHERE id = $4 AND version = $5`,
		doc, stored.IsPublic, stored.Version, stored.ID, ev.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return stored, nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, ev.ID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return nil, model.ErrEventNotFound
	}
	return nil, model.ErrConflict
}

// DeleteByID removes the event and everything it owns. It reports whether a row existed.
func (r *EventRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByOrganizer returns the events created by organizerID.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*model.Event, error) {
	return r.list(ctx, "list organizer events",
		selectEvent+` WHERE organizer_id = $1 ORDER BY created_at DESC`, organizerID)
}

// ListPublic returns public events not created by excludeOrganizerID.
func (r *EventRepository) ListPublic(ctx context.Context, excludeOrganizerID string) ([]*model.Event, error) {
	return r.list(ctx, "list public events",
		selectEvent+` WHERE is_public AND organizer_id <> $1 ORDER BY created_at DESC`, excludeOrganizerID)
}

// ListByParticipant returns the events whose roster contains userID.
func (r *EventRepository) ListByParticipant(ctx context.Context, userID string) ([]*model.Event, error) {
	probe, err := json.Marshal([]map[string]string{{"userId": userID}})
	if err != nil {
		return nil, fmt.Errorf("encode participant probe: %w", err)
	}
	return r.list(ctx, "list joined events",
		selectEvent+` WHERE doc->'participants' @> $1::jsonb ORDER BY created_at DESC`, string(probe))
}

// FindBySessionID scans session sequences for sessionID.
func (r *EventRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.Event, error) {
	probe, err := json.Marshal([]map[string]string{{"id": sessionID}})
	if err != nil {
		return nil, fmt.Errorf("encode session probe: %w", err)
	}
	ev, err := scanEvent(r.db.QueryRow(ctx,
		selectEvent+` WHERE doc->'sessions' @> $1::jsonb LIMIT 1`, string(probe)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return ev, nil
}

func (r *EventRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	events := []*model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		doc     []byte
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		return nil, err
	}
	var ev model.Event
	if err := json.Unmarshal(doc, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	ev.Version = version
	return &ev, nil
}
