// Package lifecycle holds the ticket state machine. Every transition is a
// pure function from the current ticket to the next ticket plus the single
// audit event it produces; a transition whose guard does not hold fails with
// a precondition error and yields nothing.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// Transition names an actor-triggered ticket transition.
type Transition string

const (
	Claim          Transition = "claim"
	Resolve        Transition = "resolve"
	Snooze         Transition = "snooze"
	Unsnooze       Transition = "unsnooze"
	Reopen         Transition = "reopen"
	Unassign       Transition = "unassign"
	Escalate       Transition = "escalate"
	Redirect       Transition = "redirect"
	ChangePriority Transition = "change_priority"
	Assign         Transition = "assign"
)

// Draft is an event waiting for an id, actor and timestamp.
type Draft struct {
	Type    domain.EventType
	Payload domain.EventPayload
}

// Result is the outcome of a successful transition.
type Result struct {
	Ticket domain.Ticket
	Event  Draft
	// TeamsChanged tells the caller to rewrite team associations.
	TeamsChanged bool
}

// Func is the shape of the simple transitions that need only the actor.
type Func func(ticket domain.Ticket, actor domain.Person) (Result, error)

var simple = map[Transition]Func{
	Claim:    ClaimTicket,
	Resolve:  ResolveTicket,
	Snooze:   SnoozeTicket,
	Unsnooze: UnsnoozeTicket,
	Reopen:   ReopenTicket,
	Unassign: UnassignTicket,
	Escalate: EscalateTicket,
}

// Lookup returns the transition function for name.
func Lookup(name Transition) (Func, bool) {
	fn, ok := simple[name]
	return fn, ok
}

func preconditionFailed(transition Transition, ticket domain.Ticket, reason string) error {
	return apperrors.NewPreconditionFailed(reason, map[string]any{
		"ticket_id":  ticket.ID,
		"transition": string(transition),
		"status":     string(ticket.Status),
	})
}

// ClaimTicket assigns an unowned ticket to the actor.
func ClaimTicket(ticket domain.Ticket, actor domain.Person) (Result, error) {
	if ticket.HasAssignee() {
		return Result{}, preconditionFailed(Claim, ticket, "ticket is already claimed")
	}
	next := ticket.Clone()
	next.SetAssignee(actor)
	next.Status = domain.TicketStatusInProgress
	return Result{Ticket: next, Event: Draft{Type: domain.EventClaimed}}, nil
}

// ResolveTicket marks the ticket resolved; the assignee stays.
func ResolveTicket(ticket domain.Ticket, _ domain.Person) (Result, error) {
	if ticket.Status == domain.TicketStatusResolved {
		return Result{}, preconditionFailed(Resolve, ticket, "ticket is already resolved")
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusResolved
	return Result{Ticket: next, Event: Draft{Type: domain.EventResolved}}, nil
}

// SnoozeTicket parks the ticket.
func SnoozeTicket(ticket domain.Ticket, _ domain.Person) (Result, error) {
	if ticket.Status == domain.TicketStatusSnoozed {
		return Result{}, preconditionFailed(Snooze, ticket, "ticket is already snoozed")
	}
	next := ticket.Clone()
	next.Status = domain.TicketStatusSnoozed
	return Result{Ticket: next, Event: Draft{Type: domain.EventSnoozed}}, nil
}

// UnsnoozeTicket resumes work. A ticket snoozed while unowned is taken by
// the actor so in-progress always has an assignee.
func UnsnoozeTicket(ticket domain.Ticket, actor domain.Person) (Result, error) {
	if ticket.Status != domain.TicketStatusSnoozed {
		return Result{}, preconditionFailed(Unsnooze, ticket, "ticket is not snoozed")
	}
	next := ticket.Clone()
	if !next.HasAssignee() {
		next.SetAssignee(actor)
	}
	next.Status = domain.TicketStatusInProgress
	return Result{
		Ticket: next,
		Event: Draft{Type: domain.EventStatusChanged, Payload: domain.StatusChange{
			From: domain.TicketStatusSnoozed,
			To:   domain.TicketStatusInProgress,
			Via:  domain.ViaUnsnooze,
			By:   actor.Email,
		}},
	}, nil
}

// ReopenTicket brings a resolved ticket back and re-claims it for the actor.
func ReopenTicket(ticket domain.Ticket, actor domain.Person) (Result, error) {
	if ticket.Status != domain.TicketStatusResolved {
		return Result{}, preconditionFailed(Reopen, ticket, "ticket is not resolved")
	}
	next := ticket.Clone()
	next.SetAssignee(actor)
	next.Status = domain.TicketStatusInProgress
	return Result{
		Ticket: next,
		Event: Draft{Type: domain.EventStatusChanged, Payload: domain.StatusChange{
			From: domain.TicketStatusResolved,
			To:   domain.TicketStatusInProgress,
			Via:  domain.ViaReopen,
			By:   actor.Email,
		}},
	}, nil
}

// UnassignTicket releases the actor's own in-progress ticket.
func UnassignTicket(ticket domain.Ticket, actor domain.Person) (Result, error) {
	if ticket.Status != domain.TicketStatusInProgress {
		return Result{}, preconditionFailed(Unassign, ticket, "ticket is not in progress")
	}
	if ticket.AssigneeID != actor.ID {
		return Result{}, preconditionFailed(Unassign, ticket, "ticket is not assigned to you")
	}
	next := ticket.Clone()
	next.SetAssignee(domain.Person{})
	next.Status = domain.TicketStatusOpen
	return Result{
		Ticket: next,
		Event: Draft{Type: domain.EventStatusChanged, Payload: domain.StatusChange{
			From: domain.TicketStatusInProgress,
			To:   domain.TicketStatusOpen,
			Via:  domain.ViaUnassign,
			By:   actor.Email,
		}},
	}, nil
}

// EscalateTicket raises priority to urgent.
func EscalateTicket(ticket domain.Ticket, _ domain.Person) (Result, error) {
	if ticket.Priority == domain.TicketPriorityUrgent {
		return Result{}, preconditionFailed(Escalate, ticket, "ticket is already urgent")
	}
	next := ticket.Clone()
	next.Priority = domain.TicketPriorityUrgent
	return Result{Ticket: next, Event: Draft{Type: domain.EventEscalated}}, nil
}

// RedirectTicket replaces the ticket's teams. Targets are compared with the
// current teams as a set; the first target becomes the primary team.
func RedirectTicket(ticket domain.Ticket, _ domain.Person, targets []domain.Team) (Result, error) {
	targets = uniqueTeams(targets)
	if len(targets) == 0 {
		return Result{}, preconditionFailed(Redirect, ticket, "select at least one team")
	}
	ids := make([]string, len(targets))
	for i, team := range targets {
		ids[i] = team.ID
	}
	if sameSet(ids, ticket.TeamIDs) {
		return Result{}, preconditionFailed(Redirect, ticket, "ticket already belongs to these teams")
	}
	next := ticket.Clone()
	next.Teams = append([]domain.Team(nil), targets...)
	next.TeamIDs = ids
	primary := targets[0]
	next.Team = &primary
	next.TeamID = primary.ID
	return Result{
		Ticket:       next,
		Event:        Draft{Type: domain.EventTeamChanged, Payload: domain.TeamChange{To: ids}},
		TeamsChanged: true,
	}, nil
}

// ChangeTicketPriority sets an explicit priority.
func ChangeTicketPriority(ticket domain.Ticket, _ domain.Person, priority domain.TicketPriority) (Result, error) {
	if !priority.Valid() {
		return Result{}, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(priority)})
	}
	if ticket.Priority == priority {
		return Result{}, preconditionFailed(ChangePriority, ticket, fmt.Sprintf("ticket priority is already %s", priority))
	}
	next := ticket.Clone()
	next.Priority = priority
	return Result{
		Ticket: next,
		Event: Draft{Type: domain.EventPriorityChanged, Payload: domain.PriorityChange{
			From: ticket.Priority,
			To:   priority,
		}},
	}, nil
}

// AssignTicket hands the ticket to assignee. An open ticket moves to
// in-progress; resolved tickets must be reopened first.
func AssignTicket(ticket domain.Ticket, _ domain.Person, assignee domain.Person) (Result, error) {
	if assignee.ID == "" {
		return Result{}, apperrors.NewValidationError("assignee is required", nil)
	}
	if ticket.Status == domain.TicketStatusResolved {
		return Result{}, preconditionFailed(Assign, ticket, "resolved tickets cannot be assigned")
	}
	if ticket.AssigneeID == assignee.ID {
		return Result{}, preconditionFailed(Assign, ticket, "ticket is already assigned to this member")
	}
	next := ticket.Clone()
	next.SetAssignee(assignee)
	if next.Status == domain.TicketStatusOpen {
		next.Status = domain.TicketStatusInProgress
	}
	return Result{
		Ticket: next,
		Event: Draft{Type: domain.EventAssigned, Payload: domain.Assignment{
			To:     assignee.ID,
			ToName: assignee.Name,
		}},
	}, nil
}

// Touch advances UpdatedAt to now, never moving it backwards or leaving it
// unchanged.
func Touch(ticket *domain.Ticket, now time.Time) {
	if !now.After(ticket.UpdatedAt) {
		now = ticket.UpdatedAt.Add(time.Nanosecond)
	}
	ticket.UpdatedAt = now
}

func uniqueTeams(teams []domain.Team) []domain.Team {
	seen := make(map[string]bool, len(teams))
	out := make([]domain.Team, 0, len(teams))
	for _, team := range teams {
		if team.ID == "" || seen[team.ID] {
			continue
		}
		seen[team.ID] = true
		out = append(out, team)
	}
	return out
}

func sameSet(a, b []string) bool {
	left := map[string]bool{}
	for _, id := range a {
		left[id] = true
	}
	right := map[string]bool{}
	for _, id := range b {
		right[id] = true
	}
	if len(left) != len(right) {
		return false
	}
	for id := range left {
		if !right[id] {
			return false
		}
	}
	return true
}
