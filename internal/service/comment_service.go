package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/lifecycle"
	"github.com/spec-kit/triage-service/internal/mapper"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/thread"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// CommentService manages ticket discussion threads and reactions.
type CommentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// ReactionResult is the state of a comment's reactions after a toggle.
type ReactionResult struct {
	CommentID string
	Action    thread.ToggleAction
	Reactions []domain.Reaction
	Summary   thread.Summary
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clockOrDefault(deps.Clock),
	}
}

// Thread returns the ticket's comments as a forest, siblings oldest first.
func (s *CommentService) Thread(ctx context.Context, actor domain.Actor, ticketID string) ([]*domain.Comment, error) {
	repos := s.store.Repos()
	if _, err := loadTicket(ctx, repos, actor, ticketID, false); err != nil {
		return nil, err
	}
	rows, err := repos.Comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "comment", ticketID)
	}
	return thread.BuildTree(mapper.Comments(rows)), nil
}

// Add posts a comment, optionally as a reply to parentID on the same ticket,
// and records a commented event.
func (s *CommentService) Add(ctx context.Context, actor domain.Actor, ticketID, body, parentID string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", map[string]any{"body": "required"})
	}
	parentID = strings.TrimSpace(parentID)

	var (
		comment domain.Comment
		ticket  domain.Ticket
		event   domain.Event
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		ticket, err = loadTicket(ctx, repos, actor, ticketID, false)
		if err != nil {
			return err
		}
		if parentID != "" {
			parent, err := repos.Comments.GetByID(ctx, parentID)
			if err != nil {
				return storeError(err, "comment", parentID)
			}
			if parent.TicketID != ticketID {
				return apperrors.NewValidationError("parent comment belongs to another ticket", map[string]any{"parent_id": parentID})
			}
		}

		now := s.now()
		author := actor.Person()
		comment = domain.Comment{
			ID:        uuid.NewString(),
			TicketID:  ticketID,
			Author:    &author,
			Body:      body,
			ParentID:  parentID,
			CreatedAt: now,
		}
		row := mapper.CommentToRow(comment)
		if err := repos.Comments.Create(ctx, &row); err != nil {
			return storeError(err, "comment", comment.ID)
		}
		event = newEvent(ticketID, author, lifecycle.Draft{
			Type:    domain.EventCommented,
			Payload: domain.CommentAdded{CommentID: comment.ID},
		}, now)
		return appendEvent(ctx, repos, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("comment added",
		zap.String("ticket_id", ticketID),
		zap.String("comment_id", comment.ID),
		zap.String("actor_id", actor.ID),
	)
	publish(ctx, s.dispatcher, event, ticket)
	return &comment, nil
}

// Delete removes the caller's own comment. Replies stay and surface as roots.
func (s *CommentService) Delete(ctx context.Context, actor domain.Actor, commentID string) error {
	return s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		row, err := repos.Comments.GetByID(ctx, commentID)
		if err != nil {
			return storeError(err, "comment", commentID)
		}
		if _, err := loadTicket(ctx, repos, actor, row.TicketID, false); err != nil {
			return err
		}
		if actor.ID == "" || stringValue(row.UserID) != actor.ID {
			return apperrors.NewNotAuthorized("only the author can delete this comment")
		}
		return storeError(repos.Comments.Delete(ctx, commentID), "comment", commentID)
	})
}

// ToggleReaction sets, replaces or clears the caller's reaction on a
// comment. The caller observes one atomic change.
func (s *CommentService) ToggleReaction(ctx context.Context, actor domain.Actor, commentID string, kind domain.ReactionKind) (*ReactionResult, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("invalid reaction", map[string]any{"reaction_type": string(kind)})
	}
	if actor.ID == "" {
		return nil, apperrors.NewUnauthorized("identity required")
	}

	result := &ReactionResult{CommentID: commentID}
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		comment, err := repos.Comments.GetByID(ctx, commentID)
		if err != nil {
			return storeError(err, "comment", commentID)
		}
		if _, err := loadTicket(ctx, repos, actor, comment.TicketID, false); err != nil {
			return err
		}

		rows, err := repos.Comments.ListByTicket(ctx, comment.TicketID)
		if err != nil {
			return storeError(err, "comment", comment.TicketID)
		}
		var before []domain.Reaction
		for _, row := range rows {
			if row.ID == commentID {
				before = mapper.Comment(row).Reactions
				break
			}
		}
		var existing *domain.Reaction
		for i := range before {
			if before[i].UserID == actor.ID {
				existing = &before[i]
				break
			}
		}

		next := domain.Reaction{
			ID:        uuid.NewString(),
			CommentID: commentID,
			UserID:    actor.ID,
			UserName:  actor.Name,
			UserEmail: actor.Email,
			Kind:      kind,
			CreatedAt: s.now(),
		}
		result.Action = thread.DecideToggle(existing, kind)
		if result.Action == thread.ToggleRemove {
			if err := repos.Reactions.Delete(ctx, commentID, actor.ID); err != nil {
				return storeError(err, "reaction", commentID)
			}
		} else {
			row := mapper.ReactionToRow(next)
			if err := repos.Reactions.Upsert(ctx, &row); err != nil {
				return storeError(err, "reaction", commentID)
			}
			next.ID = row.ID
		}
		result.Reactions = thread.ApplyToggle(before, next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Summary = thread.Aggregate(result.Reactions, actor.ID)
	s.logger.Debug("reaction toggled",
		zap.String("comment_id", commentID),
		zap.String("action", result.Action.String()),
		zap.String("actor_id", actor.ID),
	)
	return result, nil
}
