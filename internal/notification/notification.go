// Package notification projects the audit trail into a reporter's feed and
// keeps its unread flags across refreshes.
package notification

import (
	"sort"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/mapper"
)

// DefaultLimit bounds the feed to the newest events.
const DefaultLimit = 25

// Project keeps the events on tickets reported by reporterEmail that someone
// else caused, newest first, and renders each as an unread notification.
// Both comparisons are exact.
func Project(reporterEmail string, candidates []mapper.NotificationCandidate, limit int) []domain.Notification {
	if limit <= 0 {
		limit = DefaultLimit
	}
	kept := make([]mapper.NotificationCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ReporterEmail != reporterEmail {
			continue
		}
		if candidate.Event.Actor.Email == reporterEmail {
			continue
		}
		kept = append(kept, candidate)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Event.CreatedAt.After(kept[j].Event.CreatedAt)
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}

	out := make([]domain.Notification, 0, len(kept))
	for _, candidate := range kept {
		event := candidate.Event
		out = append(out, domain.Notification{
			ID:          event.ID,
			TicketID:    event.TicketID,
			TicketTitle: candidate.TicketTitle,
			Message:     events.DescribeForReporter(event.Type, event.Payload),
			ActorName:   mapper.DisplayName(event.Actor.Name, event.Actor.Email),
			CreatedAt:   event.CreatedAt,
			Unread:      true,
		})
	}
	return out
}

// Reconcile carries the unread flag of every notification already seen in
// previous over to fresh. Ids not seen before stay unread.
func Reconcile(previous, fresh []domain.Notification) []domain.Notification {
	prior := make(map[string]bool, len(previous))
	for _, n := range previous {
		prior[n.ID] = n.Unread
	}
	out := make([]domain.Notification, len(fresh))
	for i, n := range fresh {
		if unread, ok := prior[n.ID]; ok {
			n.Unread = unread
		}
		out[i] = n
	}
	return out
}

// ApplyRead clears the unread flag of every id in read.
func ApplyRead(items []domain.Notification, read map[string]bool) []domain.Notification {
	out := make([]domain.Notification, len(items))
	for i, n := range items {
		if read[n.ID] {
			n.Unread = false
		}
		out[i] = n
	}
	return out
}

// UnreadCount counts unread notifications.
func UnreadCount(items []domain.Notification) int {
	count := 0
	for _, n := range items {
		if n.Unread {
			count++
		}
	}
	return count
}
