package events

import (
	"github.com/spec-kit/triage-service/internal/domain"
)

// Published is a committed audit event with the ticket context subscribers
// need to route it.
type Published struct {
	Event         domain.Event
	TicketTitle   string
	ReporterEmail string
}

// SelfCaused reports whether the reporter triggered the event themselves.
// The comparison is exact: actor emails come verbatim from the session.
func (p Published) SelfCaused() bool {
	return p.Event.Actor.Email == p.ReporterEmail
}
