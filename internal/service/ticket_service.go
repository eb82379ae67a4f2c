package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/lifecycle"
	"github.com/spec-kit/triage-service/internal/listing"
	"github.com/spec-kit/triage-service/internal/mapper"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/storage"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	blobs      storage.BlobStore
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Blobs      storage.BlobStore
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      Clock
}

// TicketListQuery describes a listing request.
type TicketListQuery struct {
	Criteria  listing.Criteria
	SortKey   listing.SortKey
	Direction listing.Direction
}

// TicketList is a filtered, sorted and numbered page of tickets.
type TicketList struct {
	Tickets []domain.Ticket
	Counts  listing.Counts
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		blobs:      deps.Blobs,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clockOrDefault(deps.Clock),
	}
}

// Create validates a submission and stores the open ticket with its created
// event. The reporter defaults to the caller.
func (s *TicketService) Create(ctx context.Context, actor domain.Actor, input lifecycle.CreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.ReporterEmail) == "" {
		input.ReporterEmail = actor.Email
		if strings.TrimSpace(input.ReporterName) == "" {
			input.ReporterName = actor.Name
		}
	}
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var (
		created domain.Ticket
		event   domain.Event
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		teams, err := resolveTeams(ctx, repos, actor.OrganizationID, input.TeamIDs)
		if err != nil {
			return err
		}
		input.TeamIDs = teamIDs(teams)

		now := s.now()
		result, err := lifecycle.NewTicket(uuid.NewString(), actor.OrganizationID, input, teams, now)
		if err != nil {
			return err
		}
		row := mapper.TicketToRow(result.Ticket)
		if err := repos.Tickets.Create(ctx, &row); err != nil {
			return storeError(err, "ticket", row.ID)
		}
		if err := repos.Tickets.SetTeams(ctx, row.ID, result.Ticket.TeamIDs); err != nil {
			return storeError(err, "ticket", row.ID)
		}
		event = newEvent(row.ID, actor.Person(), result.Event, now)
		if err := appendEvent(ctx, repos, event); err != nil {
			return err
		}
		created, err = loadTicket(ctx, repos, actor, row.ID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("ticket created",
		zap.String("ticket_id", created.ID),
		zap.String("actor_id", actor.ID),
	)
	publish(ctx, s.dispatcher, event, created)
	return &created, nil
}

// List returns the organization's tickets filtered and sorted for the
// caller. Numbers are assigned over the whole organization so they stay
// stable across filters.
func (s *TicketService) List(ctx context.Context, actor domain.Actor, query TicketListQuery) (*TicketList, error) {
	rows, err := s.store.Repos().Tickets.ListByOrganization(ctx, actor.OrganizationID)
	if err != nil {
		return nil, storeError(err, "ticket", "")
	}
	numbered := listing.AssignNumbers(mapper.TicketsFromRows(rows))

	criteria := query.Criteria
	if criteria.Viewer == (listing.Viewer{}) {
		criteria.Viewer = listing.Viewer{ID: actor.ID, Email: actor.Email}
	}
	result := listing.Apply(numbered, criteria)

	key := query.SortKey
	if !key.Valid() {
		key = listing.SortCreatedAt
	}
	dir := query.Direction
	if dir != listing.Asc {
		dir = listing.Desc
	}
	return &TicketList{
		Tickets: listing.Sort(result.Visible, key, dir),
		Counts:  result.Counts,
	}, nil
}

// Get loads a single ticket.
func (s *TicketService) Get(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.store.Repos(), actor, ticketID, false)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Transition applies one of the actor-only transitions by name.
func (s *TicketService) Transition(ctx context.Context, actor domain.Actor, ticketID string, name lifecycle.Transition) (*domain.Ticket, error) {
	fn, ok := lifecycle.Lookup(name)
	if !ok {
		return nil, apperrors.NewValidationError("unknown transition", map[string]any{"transition": string(name)})
	}
	return s.apply(ctx, actor, ticketID, name, func(_ repository.Repositories, current domain.Ticket) (lifecycle.Result, error) {
		return fn(current, actor.Person())
	})
}

// Redirect replaces the ticket's teams.
func (s *TicketService) Redirect(ctx context.Context, actor domain.Actor, ticketID string, ids []string) (*domain.Ticket, error) {
	return s.apply(ctx, actor, ticketID, lifecycle.Redirect, func(repos repository.Repositories, current domain.Ticket) (lifecycle.Result, error) {
		teams, err := resolveTeams(ctx, repos, actor.OrganizationID, ids)
		if err != nil {
			return lifecycle.Result{}, err
		}
		return lifecycle.RedirectTicket(current, actor.Person(), teams)
	})
}

// ChangePriority sets an explicit priority.
func (s *TicketService) ChangePriority(ctx context.Context, actor domain.Actor, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	return s.apply(ctx, actor, ticketID, lifecycle.ChangePriority, func(_ repository.Repositories, current domain.Ticket) (lifecycle.Result, error) {
		return lifecycle.ChangeTicketPriority(current, actor.Person(), priority)
	})
}

// Assign hands the ticket to another member.
func (s *TicketService) Assign(ctx context.Context, actor domain.Actor, ticketID string, assignee domain.Person) (*domain.Ticket, error) {
	return s.apply(ctx, actor, ticketID, lifecycle.Assign, func(_ repository.Repositories, current domain.Ticket) (lifecycle.Result, error) {
		return lifecycle.AssignTicket(current, actor.Person(), assignee)
	})
}

type transitionFunc func(repos repository.Repositories, current domain.Ticket) (lifecycle.Result, error)

// apply runs a transition under the ticket's row lock. The ticket update and
// its event commit together or not at all.
func (s *TicketService) apply(ctx context.Context, actor domain.Actor, ticketID string, name lifecycle.Transition, fn transitionFunc) (*domain.Ticket, error) {
	var (
		updated domain.Ticket
		event   domain.Event
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		current, err := loadTicket(ctx, repos, actor, ticketID, true)
		if err != nil {
			return err
		}
		result, err := fn(repos, current)
		if err != nil {
			return err
		}

		now := s.now()
		next := result.Ticket
		lifecycle.Touch(&next, now)
		row := mapper.TicketToRow(next)
		if err := repos.Tickets.Update(ctx, &row); err != nil {
			return storeError(err, "ticket", ticketID)
		}
		if result.TeamsChanged {
			if err := repos.Tickets.SetTeams(ctx, ticketID, next.TeamIDs); err != nil {
				return storeError(err, "ticket", ticketID)
			}
		}
		event = newEvent(ticketID, actor.Person(), result.Event, now)
		if err := appendEvent(ctx, repos, event); err != nil {
			return err
		}
		updated, err = loadTicket(ctx, repos, actor, ticketID, false)
		return err
	})
	s.metrics.RecordTransition(string(name), err == nil)
	if err != nil {
		s.logger.Debug("ticket transition rejected",
			zap.String("ticket_id", ticketID),
			zap.String("transition", string(name)),
			zap.String("actor_id", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("ticket transition",
		zap.String("ticket_id", ticketID),
		zap.String("transition", string(name)),
		zap.String("actor_id", actor.ID),
	)
	publish(ctx, s.dispatcher, event, updated)
	return &updated, nil
}

// Delete permanently removes a ticket. Only its reporter may delete it; the
// email comparison ignores case.
func (s *TicketService) Delete(ctx context.Context, actor domain.Actor, ticketID string) error {
	var paths []string
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		ticket, err := loadTicket(ctx, repos, actor, ticketID, true)
		if err != nil {
			return err
		}
		if actor.Email == "" || !strings.EqualFold(ticket.ReporterEmail, actor.Email) {
			return apperrors.NewNotAuthorized("only the reporter can delete this ticket")
		}
		attachments, err := repos.Attachments.ListByTicket(ctx, ticketID)
		if err != nil {
			return storeError(err, "attachment", ticketID)
		}
		for _, attachment := range attachments {
			paths = append(paths, attachment.StoragePath)
		}
		return storeError(repos.Tickets.Delete(ctx, ticketID), "ticket", ticketID)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("ticket deleted", zap.String("ticket_id", ticketID), zap.String("actor_id", actor.ID))
	if s.blobs != nil {
		for _, path := range paths {
			if err := s.blobs.Delete(ctx, path); err != nil {
				s.logger.Warn("attachment blob not removed",
					zap.String("ticket_id", ticketID),
					zap.String("path", path),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Events returns the ticket's audit trail, oldest first.
func (s *TicketService) Events(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Event, error) {
	repos := s.store.Repos()
	if _, err := loadTicket(ctx, repos, actor, ticketID, false); err != nil {
		return nil, err
	}
	rows, err := repos.Events.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "event", ticketID)
	}
	return mapper.Events(rows), nil
}

// Teams lists the caller's organization teams.
func (s *TicketService) Teams(ctx context.Context, actor domain.Actor) ([]domain.Team, error) {
	rows, err := s.store.Repos().Teams.ListByOrganization(ctx, actor.OrganizationID)
	if err != nil {
		return nil, storeError(err, "team", actor.OrganizationID)
	}
	return mapper.Teams(rows), nil
}
