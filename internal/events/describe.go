package events

import (
	"fmt"

	"github.com/spec-kit/triage-service/internal/domain"
)

// Describe renders an event for the ticket's activity log. Unknown types
// render as the raw type string.
func Describe(eventType domain.EventType, payload domain.EventPayload) string {
	fields := payloadFields(payload)
	switch eventType {
	case domain.EventCreated:
		return "created this ticket"
	case domain.EventClaimed:
		return "claimed this ticket"
	case domain.EventAssigned:
		if name, ok := fields["to_name"].(string); ok && name != "" {
			return fmt.Sprintf("assigned this ticket to %s", name)
		}
		return "assigned this ticket"
	case domain.EventResolved:
		return "marked as resolved"
	case domain.EventSnoozed:
		return "snoozed this ticket"
	case domain.EventEscalated:
		return "escalated priority to urgent"
	case domain.EventNotOurTeam:
		return "redirected to other teams"
	case domain.EventStatusChanged:
		return fmt.Sprintf("changed status from %s to %s", field(fields, "from"), field(fields, "to"))
	case domain.EventPriorityChanged:
		return fmt.Sprintf("changed priority to %s", field(fields, "to"))
	case domain.EventTeamChanged:
		return "updated team assignments"
	case domain.EventCommented:
		return "added a comment"
	case domain.EventAttachmentAdded:
		return "attached " + filename(fields)
	default:
		return string(eventType)
	}
}

// DescribeForReporter renders an event as a notification addressed to the
// ticket's reporter.
func DescribeForReporter(eventType domain.EventType, payload domain.EventPayload) string {
	fields := payloadFields(payload)
	switch eventType {
	case domain.EventCreated:
		return "created your ticket"
	case domain.EventClaimed:
		return "claimed your ticket"
	case domain.EventAssigned:
		return "assigned your ticket"
	case domain.EventResolved:
		return "marked your ticket resolved"
	case domain.EventSnoozed:
		return "snoozed your ticket"
	case domain.EventEscalated:
		return "escalated your ticket to urgent"
	case domain.EventNotOurTeam:
		return "redirected your ticket"
	case domain.EventStatusChanged:
		return fmt.Sprintf("changed status to %s", fieldOr(fields, "to", "updated"))
	case domain.EventPriorityChanged:
		return fmt.Sprintf("changed priority to %s", fieldOr(fields, "to", "updated"))
	case domain.EventTeamChanged:
		return "updated the assigned teams"
	case domain.EventCommented:
		return "added a comment"
	case domain.EventAttachmentAdded:
		return "attached " + filename(fields)
	default:
		return string(eventType)
	}
}

func payloadFields(payload domain.EventPayload) map[string]any {
	if payload == nil {
		return nil
	}
	return payload.Fields()
}

func field(fields map[string]any, key string) string {
	if v, ok := fields[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func fieldOr(fields map[string]any, key, fallback string) string {
	if v := field(fields, key); v != "" {
		return v
	}
	return fallback
}

func filename(fields map[string]any) string {
	return fieldOr(fields, "filename", "a file")
}
