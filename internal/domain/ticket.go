package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusSnoozed    TicketStatus = "snoozed"
)

// TicketStatuses lists every status in tab order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusSnoozed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusSnoozed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityUrgent TicketPriority = "urgent"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityLow    TicketPriority = "low"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank orders priorities by severity, urgent first.
func (p TicketPriority) Rank() int {
	if rank, ok := priorityRank[p]; ok {
		return rank
	}
	return len(priorityRank)
}

var priorityRank = map[TicketPriority]int{
	TicketPriorityUrgent: 0,
	TicketPriorityHigh:   1,
	TicketPriorityMedium: 2,
	TicketPriorityLow:    3,
}

// DefaultCategory is applied when a ticket is submitted without one.
const DefaultCategory = "Bug"

// Ticket is the aggregate for reported issues.
type Ticket struct {
	ID             string
	OrganizationID string
	// Number is a display ordinal over the currently loaded set. Never stored.
	Number        int
	Title         string
	Description   string
	Category      string
	Priority      TicketPriority
	Status        TicketStatus
	ReporterEmail string
	ReporterName  string
	AssigneeID    string
	Assignee      *Person
	// TeamID and Team mirror the first entry of Teams.
	TeamID    string
	Team      *Team
	Teams     []Team
	TeamIDs   []string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasAssignee reports whether someone owns the ticket.
func (t *Ticket) HasAssignee() bool {
	return t.AssigneeID != ""
}

// SetAssignee records p as the owner, or clears ownership for a zero Person.
func (t *Ticket) SetAssignee(p Person) {
	if p.ID == "" {
		t.AssigneeID = ""
		t.Assignee = nil
		return
	}
	snapshot := p
	t.AssigneeID = p.ID
	t.Assignee = &snapshot
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Ticket) Clone() Ticket {
	out := t
	if t.Assignee != nil {
		assignee := *t.Assignee
		out.Assignee = &assignee
	}
	if t.Team != nil {
		team := *t.Team
		out.Team = &team
	}
	out.Teams = append([]Team(nil), t.Teams...)
	out.TeamIDs = append([]string(nil), t.TeamIDs...)
	out.Tags = append([]string(nil), t.Tags...)
	return out
}
