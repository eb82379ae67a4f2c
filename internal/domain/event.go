package domain

import (
	"fmt"
	"time"
)

// EventType enumerates audit record kinds.
type EventType string

const (
	EventCreated         EventType = "created"
	EventAssigned        EventType = "assigned"
	EventClaimed         EventType = "claimed"
	EventCommented       EventType = "commented"
	EventResolved        EventType = "resolved"
	EventSnoozed         EventType = "snoozed"
	EventEscalated       EventType = "escalated"
	EventNotOurTeam      EventType = "not_our_team"
	EventStatusChanged   EventType = "status_changed"
	EventPriorityChanged EventType = "priority_changed"
	EventTeamChanged     EventType = "team_changed"
	EventAttachmentAdded EventType = "attachment_added"
)

// Event is an immutable audit record. Actor is a snapshot taken when the
// event was written.
type Event struct {
	ID        string
	TicketID  string
	Actor     Person
	Type      EventType
	Payload   EventPayload
	CreatedAt time.Time
}

// EventPayload is the typed body of an event. Fields returns the stored map
// form; a nil map means the event carries no payload.
type EventPayload interface {
	Fields() map[string]any
}

// StatusVia names the transition that produced a status change. It selects
// the audit key the actor's email is stored under.
type StatusVia string

const (
	ViaReopen   StatusVia = "reopen"
	ViaUnsnooze StatusVia = "unsnooze"
	ViaUnassign StatusVia = "unassign"
)

var viaKeys = map[StatusVia]string{
	ViaReopen:   "reopened_by",
	ViaUnsnooze: "unsnoozed_by",
	ViaUnassign: "unassigned_by",
}

// StatusChange is the payload of status_changed.
type StatusChange struct {
	From TicketStatus
	To   TicketStatus
	Via  StatusVia
	By   string
}

func (p StatusChange) Fields() map[string]any {
	out := map[string]any{"from": string(p.From), "to": string(p.To)}
	if key, ok := viaKeys[p.Via]; ok && p.By != "" {
		out[key] = p.By
	}
	return out
}

// PriorityChange is the payload of priority_changed.
type PriorityChange struct {
	From TicketPriority
	To   TicketPriority
}

func (p PriorityChange) Fields() map[string]any {
	return map[string]any{"from": string(p.From), "to": string(p.To)}
}

// TeamChange is the payload of team_changed and not_our_team.
type TeamChange struct {
	To []string
}

func (p TeamChange) Fields() map[string]any {
	to := make([]any, 0, len(p.To))
	for _, id := range p.To {
		to = append(to, id)
	}
	return map[string]any{"to": to}
}

// Assignment is the payload of assigned.
type Assignment struct {
	To     string
	ToName string
}

func (p Assignment) Fields() map[string]any {
	out := map[string]any{"to": p.To}
	if p.ToName != "" {
		out["to_name"] = p.ToName
	}
	return out
}

// CommentAdded is the payload of commented.
type CommentAdded struct {
	CommentID string
}

func (p CommentAdded) Fields() map[string]any {
	return map[string]any{"comment_id": p.CommentID}
}

// AttachmentAdded is the payload of attachment_added.
type AttachmentAdded struct {
	AttachmentID string
	Filename     string
	ContentType  string
}

func (p AttachmentAdded) Fields() map[string]any {
	return map[string]any{
		"attachment_id": p.AttachmentID,
		"filename":      p.Filename,
		"content_type":  p.ContentType,
	}
}

// OpaquePayload keeps payloads of unknown or loosely shaped events.
type OpaquePayload map[string]any

func (p OpaquePayload) Fields() map[string]any {
	if p == nil {
		return nil
	}
	return map[string]any(p)
}

// DecodePayload turns a stored payload map into its typed form.
func DecodePayload(eventType EventType, raw map[string]any) EventPayload {
	if raw == nil {
		return nil
	}
	switch eventType {
	case EventStatusChanged:
		p := StatusChange{
			From: TicketStatus(stringField(raw, "from")),
			To:   TicketStatus(stringField(raw, "to")),
		}
		for via, key := range viaKeys {
			if by := stringField(raw, key); by != "" {
				p.Via = via
				p.By = by
				break
			}
		}
		return p
	case EventPriorityChanged:
		return PriorityChange{
			From: TicketPriority(stringField(raw, "from")),
			To:   TicketPriority(stringField(raw, "to")),
		}
	case EventTeamChanged, EventNotOurTeam:
		return TeamChange{To: stringSlice(raw["to"])}
	case EventAssigned:
		return Assignment{To: stringField(raw, "to"), ToName: stringField(raw, "to_name")}
	case EventCommented:
		return CommentAdded{CommentID: stringField(raw, "comment_id")}
	case EventAttachmentAdded:
		return AttachmentAdded{
			AttachmentID: stringField(raw, "attachment_id"),
			Filename:     stringField(raw, "filename"),
			ContentType:  stringField(raw, "content_type"),
		}
	default:
		return OpaquePayload(raw)
	}
}

func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func stringSlice(v any) []string {
	switch items := v.(type) {
	case []string:
		return append([]string(nil), items...)
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
