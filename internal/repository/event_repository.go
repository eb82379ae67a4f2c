package repository

import (
	"context"
)

// EventRepository stores the append-only audit trail.
type EventRepository interface {
	Create(ctx context.Context, event *EventRow) error
	ListByTicket(ctx context.Context, ticketID string) ([]EventRow, error)
	// ListForReporter returns the newest events on tickets reported by
	// reporterEmail, newest first.
	ListForReporter(ctx context.Context, reporterEmail string, limit int) ([]NotificationRow, error)
}

type eventRepository struct {
	db DBTX
}

// NewEventRepository builds repository.
func NewEventRepository(db DBTX) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *EventRow) error {
	const query = `
        INSERT INTO ticket_events (id, ticket_id, actor_id, actor_name, actor_email, event_type, payload, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.TicketID,
		event.ActorID,
		event.ActorName,
		event.ActorEmail,
		event.EventType,
		event.Payload,
		event.CreatedAt,
	)
	return err
}

func (r *eventRepository) ListByTicket(ctx context.Context, ticketID string) ([]EventRow, error) {
	const query = `
        SELECT id, ticket_id, actor_id, actor_name, actor_email, event_type, payload, created_at
        FROM ticket_events WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EventRow
	for rows.Next() {
		var event EventRow
		if err := rows.Scan(
			&event.ID,
			&event.TicketID,
			&event.ActorID,
			&event.ActorName,
			&event.ActorEmail,
			&event.EventType,
			&event.Payload,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

func (r *eventRepository) ListForReporter(ctx context.Context, reporterEmail string, limit int) ([]NotificationRow, error) {
	if limit <= 0 {
		limit = 25
	}
	const query = `
        SELECT e.id, e.ticket_id, e.actor_id, e.actor_name, e.actor_email, e.event_type, e.payload, e.created_at,
               t.title, t.reporter_email
        FROM ticket_events e
        JOIN tickets t ON t.id = e.ticket_id
        WHERE t.reporter_email=$1
        ORDER BY e.created_at DESC
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, reporterEmail, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []NotificationRow
	for rows.Next() {
		var row NotificationRow
		if err := rows.Scan(
			&row.ID,
			&row.TicketID,
			&row.ActorID,
			&row.ActorName,
			&row.ActorEmail,
			&row.EventType,
			&row.Payload,
			&row.CreatedAt,
			&row.TicketTitle,
			&row.ReporterEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
