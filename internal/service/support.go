package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/lifecycle"
	"github.com/spec-kit/triage-service/internal/mapper"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func clockOrDefault(clock Clock) Clock {
	if clock == nil {
		return systemClock
	}
	return clock
}

// storeError turns a repository failure into a DomainError. Errors that
// already carry a code pass through.
func storeError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	}
	return apperrors.NewStorageFailure(resource+" storage failed", err)
}

// loadTicket fetches a ticket visible to actor. Tickets of other
// organizations are reported as missing.
func loadTicket(ctx context.Context, repos repository.Repositories, actor domain.Actor, ticketID string, forUpdate bool) (domain.Ticket, error) {
	var (
		row *repository.TicketRow
		err error
	)
	if forUpdate {
		row, err = repos.Tickets.GetForUpdate(ctx, ticketID)
	} else {
		row, err = repos.Tickets.GetByID(ctx, ticketID)
	}
	if err != nil {
		return domain.Ticket{}, storeError(err, "ticket", ticketID)
	}
	if row.OrganizationID != actor.OrganizationID {
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return mapper.TicketFromRow(*row), nil
}

// resolveTeams loads the organization's teams for ids, deduplicated and in
// request order. Any unknown id is a validation failure.
func resolveTeams(ctx context.Context, repos repository.Repositories, organizationID string, ids []string) ([]domain.Team, error) {
	wanted := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		wanted = append(wanted, id)
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	rows, err := repos.Teams.GetByIDs(ctx, organizationID, wanted)
	if err != nil {
		return nil, storeError(err, "team", strings.Join(wanted, ","))
	}
	byID := make(map[string]domain.Team, len(rows))
	for _, team := range mapper.Teams(rows) {
		byID[team.ID] = team
	}

	out := make([]domain.Team, 0, len(wanted))
	var unknown []string
	for _, id := range wanted {
		team, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		out = append(out, team)
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewValidationError("unknown team", map[string]any{"team_ids": unknown})
	}
	return out, nil
}

func teamIDs(teams []domain.Team) []string {
	out := make([]string, len(teams))
	for i, team := range teams {
		out[i] = team.ID
	}
	return out
}

func newEvent(ticketID string, actor domain.Person, draft lifecycle.Draft, now time.Time) domain.Event {
	return domain.Event{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		Actor:     actor,
		Type:      draft.Type,
		Payload:   draft.Payload,
		CreatedAt: now,
	}
}

func appendEvent(ctx context.Context, repos repository.Repositories, event domain.Event) error {
	row := mapper.EventToRow(event)
	if err := repos.Events.Create(ctx, &row); err != nil {
		return storeError(err, "event", event.ID)
	}
	return nil
}

// publish hands a committed event to in-process subscribers.
func publish(ctx context.Context, dispatcher events.Dispatcher, event domain.Event, ticket domain.Ticket) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, events.Published{
		Event:         event,
		TicketTitle:   ticket.Title,
		ReporterEmail: ticket.ReporterEmail,
	})
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
