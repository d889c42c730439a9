package events

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by the event store.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists domain events in Postgres.
type Store struct {
	DB Querier
}

// InsertEvent appends an event to the domain_events log.
func (s Store) InsertEvent(ctx context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	const q = `INSERT INTO domain_events (topic, aggregate_id, payload)
VALUES ($1, $2, $3)
RETURNING id, topic, aggregate_id, payload, occurred_at`
	var ev Event
	err := s.DB.QueryRow(ctx, q, topic, aggregateID, payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	if err != nil {
		return Event{}, err
	}
	return ev, nil
}
