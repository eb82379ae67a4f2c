package mapper

import (
	"strings"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
)

// FallbackReactorName labels a reaction whose reactor left no name or email.
const FallbackReactorName = "Someone"

// Comment converts a comment row, reactions included. Replies stay empty
// until the thread builder links them.
func Comment(row repository.CommentRow) *domain.Comment {
	comment := &domain.Comment{
		ID:        row.ID,
		TicketID:  row.TicketID,
		Author:    personFromColumns(row.UserID, row.UserName, row.UserEmail),
		Body:      row.Body,
		ParentID:  deref(row.ParentID),
		CreatedAt: row.CreatedAt,
		Replies:   []*domain.Comment{},
	}
	comment.Reactions = make([]domain.Reaction, 0, len(row.Reactions))
	for _, reaction := range row.Reactions {
		comment.Reactions = append(comment.Reactions, Reaction(reaction))
	}
	return comment
}

// Comments converts rows preserving order.
func Comments(rows []repository.CommentRow) []*domain.Comment {
	out := make([]*domain.Comment, 0, len(rows))
	for _, row := range rows {
		out = append(out, Comment(row))
	}
	return out
}

// CommentToRow is the inverse used on insert.
func CommentToRow(comment domain.Comment) repository.CommentRow {
	row := repository.CommentRow{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		Body:      comment.Body,
		ParentID:  ptr(comment.ParentID),
		CreatedAt: comment.CreatedAt,
	}
	if comment.Author != nil {
		row.UserID = ptr(comment.Author.ID)
		row.UserName = ptr(comment.Author.Name)
		row.UserEmail = ptr(comment.Author.Email)
	}
	return row
}

// Reaction converts a reaction row. The reactor name falls back to the
// email, then to "Someone".
func Reaction(row repository.ReactionRow) domain.Reaction {
	name := strings.TrimSpace(deref(row.UserName))
	if name == "" {
		name = strings.TrimSpace(deref(row.UserEmail))
	}
	if name == "" {
		name = FallbackReactorName
	}
	return domain.Reaction{
		ID:        row.ID,
		CommentID: row.CommentID,
		UserID:    row.UserID,
		UserName:  name,
		UserEmail: deref(row.UserEmail),
		Kind:      domain.ReactionKind(row.Kind),
		CreatedAt: row.CreatedAt,
	}
}

// ReactionToRow is the inverse used on upsert.
func ReactionToRow(reaction domain.Reaction) repository.ReactionRow {
	return repository.ReactionRow{
		ID:        reaction.ID,
		CommentID: reaction.CommentID,
		UserID:    reaction.UserID,
		UserName:  ptr(reaction.UserName),
		UserEmail: ptr(reaction.UserEmail),
		Kind:      string(reaction.Kind),
		CreatedAt: reaction.CreatedAt,
	}
}

// Event converts an audit row, decoding its payload by type.
func Event(row repository.EventRow) domain.Event {
	event := domain.Event{
		ID:        row.ID,
		TicketID:  row.TicketID,
		Type:      domain.EventType(row.EventType),
		Payload:   domain.DecodePayload(domain.EventType(row.EventType), row.Payload),
		CreatedAt: row.CreatedAt,
	}
	if actor := personFromColumns(row.ActorID, row.ActorName, row.ActorEmail); actor != nil {
		event.Actor = *actor
	} else {
		event.Actor = domain.Person{Name: FallbackDisplayName}
	}
	return event
}

// Events converts rows preserving order.
func Events(rows []repository.EventRow) []domain.Event {
	out := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, Event(row))
	}
	return out
}

// EventToRow is the inverse used on append.
func EventToRow(event domain.Event) repository.EventRow {
	row := repository.EventRow{
		ID:         event.ID,
		TicketID:   event.TicketID,
		ActorID:    ptr(event.Actor.ID),
		ActorName:  ptr(event.Actor.Name),
		ActorEmail: ptr(event.Actor.Email),
		EventType:  string(event.Type),
		CreatedAt:  event.CreatedAt,
	}
	if event.Payload != nil {
		row.Payload = event.Payload.Fields()
	}
	return row
}

// Attachment converts metadata; url is resolved by the blob store.
func Attachment(row repository.AttachmentRow, url string) domain.Attachment {
	return domain.Attachment{
		ID:          row.ID,
		TicketID:    row.TicketID,
		Filename:    row.Filename,
		ContentType: row.ContentType,
		StoragePath: row.StoragePath,
		Checksum:    row.Checksum,
		SizeBytes:   row.SizeBytes,
		URL:         url,
		CreatedAt:   row.CreatedAt,
	}
}

// AttachmentToRow is the inverse used on insert.
func AttachmentToRow(attachment domain.Attachment) repository.AttachmentRow {
	return repository.AttachmentRow{
		ID:          attachment.ID,
		TicketID:    attachment.TicketID,
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		StoragePath: attachment.StoragePath,
		Checksum:    attachment.Checksum,
		SizeBytes:   attachment.SizeBytes,
		CreatedAt:   attachment.CreatedAt,
	}
}

// NotificationCandidate is an event joined with its ticket, before the
// reporter filter is applied.
type NotificationCandidate struct {
	Event         domain.Event
	TicketTitle   string
	ReporterEmail string
}

// NotificationCandidates converts joined rows.
func NotificationCandidates(rows []repository.NotificationRow) []NotificationCandidate {
	out := make([]NotificationCandidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, NotificationCandidate{
			Event:         Event(row.EventRow),
			TicketTitle:   row.TicketTitle,
			ReporterEmail: row.ReporterEmail,
		})
	}
	return out
}
