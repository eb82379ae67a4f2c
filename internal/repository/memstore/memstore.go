// Package memstore is an in-memory repository.Store used in development mode
// and by service tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/spec-kit/triage-service/internal/repository"
)

// ErrDuplicate is returned when a row with the same id already exists.
var ErrDuplicate = errors.New("memstore: duplicate id")

type state struct {
	tickets     map[string]repository.TicketRow
	ticketTeams map[string][]string
	teams       map[string]repository.TeamRow
	comments    map[string]repository.CommentRow
	reactions   map[string]repository.ReactionRow
	events      []repository.EventRow
	attachments []repository.AttachmentRow
}

func newState() *state {
	return &state{
		tickets:     map[string]repository.TicketRow{},
		ticketTeams: map[string][]string{},
		teams:       map[string]repository.TeamRow{},
		comments:    map[string]repository.CommentRow{},
		reactions:   map[string]repository.ReactionRow{},
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.tickets {
		out.tickets[k] = v
	}
	for k, v := range s.ticketTeams {
		out.ticketTeams[k] = append([]string(nil), v...)
	}
	for k, v := range s.teams {
		out.teams[k] = v
	}
	for k, v := range s.comments {
		out.comments[k] = v
	}
	for k, v := range s.reactions {
		out.reactions[k] = v
	}
	out.events = append([]repository.EventRow(nil), s.events...)
	out.attachments = append([]repository.AttachmentRow(nil), s.attachments...)
	return out
}

// Store keeps every table in process memory. Transactions are serialised by
// a single mutex and roll back by restoring a snapshot.
type Store struct {
	mu   sync.Mutex
	data *state
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState()}
}

// PutTeam inserts or replaces a team. Teams are managed outside the service,
// so this is the only way to seed them.
func (s *Store) PutTeam(team repository.TeamRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.teams[team.ID] = team
}

func (s *Store) Repos() repository.Repositories {
	return s.repos(true)
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.repos(false)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) repos(locked bool) repository.Repositories {
	b := base{store: s, locked: locked}
	return repository.Repositories{
		Tickets:     ticketRepo{b},
		Teams:       teamRepo{b},
		Comments:    commentRepo{b},
		Reactions:   reactionRepo{b},
		Events:      eventRepo{b},
		Attachments: attachmentRepo{b},
	}
}

// base runs a callback against the current state, taking the store lock
// unless the caller already holds it through WithinTx.
type base struct {
	store  *Store
	locked bool
}

func (b base) do(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.locked {
		b.store.mu.Lock()
		defer b.store.mu.Unlock()
	}
	return fn(b.store.data)
}

type ticketRepo struct{ base }

func (r ticketRepo) Create(ctx context.Context, ticket *repository.TicketRow) error {
	return r.do(ctx, func(s *state) error {
		if _, ok := s.tickets[ticket.ID]; ok {
			return ErrDuplicate
		}
		s.tickets[ticket.ID] = storedTicket(*ticket)
		return nil
	})
}

func (r ticketRepo) Update(ctx context.Context, ticket *repository.TicketRow) error {
	return r.do(ctx, func(s *state) error {
		current, ok := s.tickets[ticket.ID]
		if !ok {
			return repository.ErrNotFound
		}
		current.TeamID = ticket.TeamID
		current.Category = ticket.Category
		current.Priority = ticket.Priority
		current.Status = ticket.Status
		current.AssigneeID = ticket.AssigneeID
		current.AssigneeName = ticket.AssigneeName
		current.AssigneeEmail = ticket.AssigneeEmail
		current.Tags = append([]string(nil), ticket.Tags...)
		current.UpdatedAt = ticket.UpdatedAt
		s.tickets[ticket.ID] = current
		return nil
	})
}

func (r ticketRepo) Delete(ctx context.Context, id string) error {
	return r.do(ctx, func(s *state) error {
		if _, ok := s.tickets[id]; !ok {
			return repository.ErrNotFound
		}
		delete(s.tickets, id)
		delete(s.ticketTeams, id)
		for commentID, comment := range s.comments {
			if comment.TicketID != id {
				continue
			}
			delete(s.comments, commentID)
			for key, reaction := range s.reactions {
				if reaction.CommentID == commentID {
					delete(s.reactions, key)
				}
			}
		}
		events := s.events[:0]
		for _, event := range s.events {
			if event.TicketID != id {
				events = append(events, event)
			}
		}
		s.events = events
		attachments := s.attachments[:0]
		for _, attachment := range s.attachments {
			if attachment.TicketID != id {
				attachments = append(attachments, attachment)
			}
		}
		s.attachments = attachments
		return nil
	})
}

func (r ticketRepo) GetByID(ctx context.Context, id string) (*repository.TicketRow, error) {
	var out *repository.TicketRow
	err := r.do(ctx, func(s *state) error {
		row, ok := s.tickets[id]
		if !ok {
			return repository.ErrNotFound
		}
		resolved := s.resolveTicket(row)
		out = &resolved
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID; the transaction already holds the store lock.
func (r ticketRepo) GetForUpdate(ctx context.Context, id string) (*repository.TicketRow, error) {
	return r.GetByID(ctx, id)
}

func (r ticketRepo) ListByOrganization(ctx context.Context, organizationID string) ([]repository.TicketRow, error) {
	var out []repository.TicketRow
	err := r.do(ctx, func(s *state) error {
		for _, row := range s.tickets {
			if row.OrganizationID == organizationID {
				out = append(out, s.resolveTicket(row))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r ticketRepo) SetTeams(ctx context.Context, ticketID string, teamIDs []string) error {
	return r.do(ctx, func(s *state) error {
		if _, ok := s.tickets[ticketID]; !ok {
			return repository.ErrNotFound
		}
		s.ticketTeams[ticketID] = append([]string(nil), teamIDs...)
		return nil
	})
}

func storedTicket(row repository.TicketRow) repository.TicketRow {
	row.Tags = append([]string(nil), row.Tags...)
	row.LegacyTeam = nil
	row.Teams = nil
	return row
}

func (s *state) resolveTicket(row repository.TicketRow) repository.TicketRow {
	row.Tags = append([]string(nil), row.Tags...)
	if row.TeamID != nil {
		if team, ok := s.teams[*row.TeamID]; ok {
			row.LegacyTeam = &team
		}
	}
	for _, teamID := range s.ticketTeams[row.ID] {
		if team, ok := s.teams[teamID]; ok {
			row.Teams = append(row.Teams, team)
		}
	}
	return row
}

type teamRepo struct{ base }

func (r teamRepo) GetByIDs(ctx context.Context, organizationID string, ids []string) ([]repository.TeamRow, error) {
	var out []repository.TeamRow
	err := r.do(ctx, func(s *state) error {
		seen := map[string]bool{}
		for _, id := range ids {
			team, ok := s.teams[id]
			if !ok || seen[id] || team.OrganizationID != organizationID {
				continue
			}
			seen[id] = true
			out = append(out, team)
		}
		return nil
	})
	return out, err
}

func (r teamRepo) ListByOrganization(ctx context.Context, organizationID string) ([]repository.TeamRow, error) {
	var out []repository.TeamRow
	err := r.do(ctx, func(s *state) error {
		for _, team := range s.teams {
			if team.OrganizationID == organizationID {
				out = append(out, team)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type commentRepo struct{ base }

func (r commentRepo) Create(ctx context.Context, comment *repository.CommentRow) error {
	return r.do(ctx, func(s *state) error {
		if _, ok := s.comments[comment.ID]; ok {
			return ErrDuplicate
		}
		if _, ok := s.tickets[comment.TicketID]; !ok {
			return repository.ErrNotFound
		}
		row := *comment
		row.Reactions = nil
		s.comments[row.ID] = row
		return nil
	})
}

func (r commentRepo) GetByID(ctx context.Context, id string) (*repository.CommentRow, error) {
	var out *repository.CommentRow
	err := r.do(ctx, func(s *state) error {
		row, ok := s.comments[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &row
		return nil
	})
	return out, err
}

func (r commentRepo) Delete(ctx context.Context, id string) error {
	return r.do(ctx, func(s *state) error {
		if _, ok := s.comments[id]; !ok {
			return repository.ErrNotFound
		}
		delete(s.comments, id)
		for key, reaction := range s.reactions {
			if reaction.CommentID == id {
				delete(s.reactions, key)
			}
		}
		return nil
	})
}

func (r commentRepo) ListByTicket(ctx context.Context, ticketID string) ([]repository.CommentRow, error) {
	var out []repository.CommentRow
	err := r.do(ctx, func(s *state) error {
		index := map[string]int{}
		for _, row := range s.comments {
			if row.TicketID == ticketID {
				out = append(out, row)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID < out[j].ID
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
		for i := range out {
			index[out[i].ID] = i
		}
		var reactions []repository.ReactionRow
		for _, reaction := range s.reactions {
			if _, ok := index[reaction.CommentID]; ok {
				reactions = append(reactions, reaction)
			}
		}
		sort.SliceStable(reactions, func(i, j int) bool {
			if reactions[i].CreatedAt.Equal(reactions[j].CreatedAt) {
				return reactions[i].ID < reactions[j].ID
			}
			return reactions[i].CreatedAt.Before(reactions[j].CreatedAt)
		})
		for _, reaction := range reactions {
			i := index[reaction.CommentID]
			out[i].Reactions = append(out[i].Reactions, reaction)
		}
		return nil
	})
	return out, err
}

type reactionRepo struct{ base }

func reactionKey(commentID, userID string) string {
	return commentID + "|" + userID
}

func (r reactionRepo) Upsert(ctx context.Context, reaction *repository.ReactionRow) error {
	return r.do(ctx, func(s *state) error {
		if _, ok := s.comments[reaction.CommentID]; !ok {
			return repository.ErrNotFound
		}
		key := reactionKey(reaction.CommentID, reaction.UserID)
		if existing, ok := s.reactions[key]; ok {
			reaction.ID = existing.ID
		}
		s.reactions[key] = *reaction
		return nil
	})
}

func (r reactionRepo) Delete(ctx context.Context, commentID, userID string) error {
	return r.do(ctx, func(s *state) error {
		key := reactionKey(commentID, userID)
		if _, ok := s.reactions[key]; !ok {
			return repository.ErrNotFound
		}
		delete(s.reactions, key)
		return nil
	})
}

type eventRepo struct{ base }

func (r eventRepo) Create(ctx context.Context, event *repository.EventRow) error {
	return r.do(ctx, func(s *state) error {
		if _, ok := s.tickets[event.TicketID]; !ok {
			return repository.ErrNotFound
		}
		row := *event
		if row.Payload != nil {
			payload := make(map[string]any, len(row.Payload))
			for k, v := range row.Payload {
				payload[k] = v
			}
			row.Payload = payload
		}
		s.events = append(s.events, row)
		return nil
	})
}

func (r eventRepo) ListByTicket(ctx context.Context, ticketID string) ([]repository.EventRow, error) {
	var out []repository.EventRow
	err := r.do(ctx, func(s *state) error {
		for _, event := range s.events {
			if event.TicketID == ticketID {
				out = append(out, event)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r eventRepo) ListForReporter(ctx context.Context, reporterEmail string, limit int) ([]repository.NotificationRow, error) {
	if limit <= 0 {
		limit = 25
	}
	var out []repository.NotificationRow
	err := r.do(ctx, func(s *state) error {
		for _, event := range s.events {
			ticket, ok := s.tickets[event.TicketID]
			if !ok || ticket.ReporterEmail == nil || *ticket.ReporterEmail != reporterEmail {
				continue
			}
			out = append(out, repository.NotificationRow{
				EventRow:      event,
				TicketTitle:   ticket.Title,
				ReporterEmail: *ticket.ReporterEmail,
			})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

type attachmentRepo struct{ base }

func (r attachmentRepo) Create(ctx context.Context, attachment *repository.AttachmentRow) error {
	return r.do(ctx, func(s *state) error {
		if _, ok := s.tickets[attachment.TicketID]; !ok {
			return repository.ErrNotFound
		}
		s.attachments = append(s.attachments, *attachment)
		return nil
	})
}

func (r attachmentRepo) ListByTicket(ctx context.Context, ticketID string) ([]repository.AttachmentRow, error) {
	var out []repository.AttachmentRow
	err := r.do(ctx, func(s *state) error {
		for _, attachment := range s.attachments {
			if attachment.TicketID == ticketID {
				out = append(out, attachment)
			}
		}
		return nil
	})
	return out, err
}
