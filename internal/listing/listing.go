package listing

import (
	"math"
	"sort"
	"strings"

	"github.com/spec-kit/triage-service/internal/domain"
)

// Counts are the status tab totals.
type Counts struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Snoozed    int `json:"snoozed"`
	All        int `json:"all"`
}

// Result is a filtered view over a ticket set.
type Result struct {
	// Base passed every filter except status; Counts are computed from it.
	Base    []domain.Ticket
	Visible []domain.Ticket
	Counts  Counts
}

// Apply filters tickets. Status counts ignore the status filter so that
// switching tabs leaves the other tabs' totals alone.
func Apply(tickets []domain.Ticket, criteria Criteria) Result {
	result := Result{Base: []domain.Ticket{}, Visible: []domain.Ticket{}}
	for _, ticket := range tickets {
		if !criteria.matchesOthers(ticket) {
			continue
		}
		result.Base = append(result.Base, ticket)
		if criteria.matchesStatus(ticket) {
			result.Visible = append(result.Visible, ticket)
		}
	}
	result.Counts = CountByStatus(result.Base)
	return result
}

// CountByStatus tallies tickets per status.
func CountByStatus(tickets []domain.Ticket) Counts {
	var counts Counts
	for _, ticket := range tickets {
		switch ticket.Status {
		case domain.TicketStatusOpen:
			counts.Open++
		case domain.TicketStatusInProgress:
			counts.InProgress++
		case domain.TicketStatusResolved:
			counts.Resolved++
		case domain.TicketStatusSnoozed:
			counts.Snoozed++
		}
		counts.All++
	}
	return counts
}

// AssignNumbers numbers tickets 1..n by ascending creation time. Tickets
// created at the same instant keep their input order. The input order of
// the returned slice is unchanged.
func AssignNumbers(tickets []domain.Ticket) []domain.Ticket {
	out := append([]domain.Ticket(nil), tickets...)
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out[order[a]].CreatedAt.Before(out[order[b]].CreatedAt)
	})
	for number, index := range order {
		out[index].Number = number + 1
	}
	return out
}

// SortKey selects the ticket attribute to order by.
type SortKey string

const (
	SortNumber    SortKey = "number"
	SortTitle     SortKey = "title"
	SortStatus    SortKey = "status"
	SortPriority  SortKey = "priority"
	SortTeam      SortKey = "team"
	SortAssignee  SortKey = "assignee"
	SortCreatedAt SortKey = "created_at"
	SortUpdatedAt SortKey = "updated_at"
)

// SortKeys lists accepted keys.
var SortKeys = []SortKey{SortNumber, SortTitle, SortStatus, SortPriority, SortTeam, SortAssignee, SortCreatedAt, SortUpdatedAt}

// Valid reports whether k is a known key.
func (k SortKey) Valid() bool {
	for _, key := range SortKeys {
		if key == k {
			return true
		}
	}
	return false
}

// Direction is ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var statusRank = map[domain.TicketStatus]int{
	domain.TicketStatusOpen:       0,
	domain.TicketStatusInProgress: 1,
	domain.TicketStatusResolved:   2,
	domain.TicketStatusSnoozed:    3,
}

// Sort orders a copy of tickets by key. Equal keys keep input order in both
// directions.
func Sort(tickets []domain.Ticket, key SortKey, dir Direction) []domain.Ticket {
	out := append([]domain.Ticket(nil), tickets...)
	cmp := comparator(key)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func comparator(key SortKey) func(a, b domain.Ticket) int {
	switch key {
	case SortNumber:
		return func(a, b domain.Ticket) int { return compareInt(number(a), number(b)) }
	case SortTitle:
		return func(a, b domain.Ticket) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortStatus:
		return func(a, b domain.Ticket) int { return compareInt(rankStatus(a.Status), rankStatus(b.Status)) }
	case SortPriority:
		return func(a, b domain.Ticket) int { return compareInt(a.Priority.Rank(), b.Priority.Rank()) }
	case SortTeam:
		return func(a, b domain.Ticket) int {
			return strings.Compare(strings.ToLower(teamName(a)), strings.ToLower(teamName(b)))
		}
	case SortAssignee:
		return func(a, b domain.Ticket) int {
			return strings.Compare(strings.ToLower(assigneeName(a)), strings.ToLower(assigneeName(b)))
		}
	case SortUpdatedAt:
		return func(a, b domain.Ticket) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	default:
		return func(a, b domain.Ticket) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func number(t domain.Ticket) int {
	if t.Number <= 0 {
		return math.MaxInt
	}
	return t.Number
}

func rankStatus(s domain.TicketStatus) int {
	if rank, ok := statusRank[s]; ok {
		return rank
	}
	return len(statusRank)
}

func teamName(t domain.Ticket) string {
	if t.Team != nil {
		return t.Team.Name
	}
	return ""
}

func assigneeName(t domain.Ticket) string {
	if t.Assignee != nil {
		return t.Assignee.Name
	}
	return ""
}
