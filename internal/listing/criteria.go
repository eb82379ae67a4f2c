// Package listing filters, counts, sorts and numbers ticket collections.
// Every function is pure and works on the currently loaded set.
package listing

import (
	"strings"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// Viewer is the member looking at the list.
type Viewer struct {
	ID    string
	Email string
}

// Criteria are conjunctive filters. Zero values disable a filter.
type Criteria struct {
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	TeamID       string
	AssignedToMe bool
	RaisedByMe   bool
	Search       string
	// CreatedFrom and CreatedTo are compared at day granularity in Location.
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Location    *time.Location
	Viewer      Viewer
}

func (c Criteria) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

// StartOfDay returns midnight in loc of the calendar date carried by t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// EndOfDay returns the last nanosecond of t's date in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// matchesStatus applies only the status filter.
func (c Criteria) matchesStatus(ticket domain.Ticket) bool {
	if len(c.Statuses) == 0 {
		return true
	}
	for _, status := range c.Statuses {
		if ticket.Status == status {
			return true
		}
	}
	return false
}

// matchesOthers applies every filter except status.
func (c Criteria) matchesOthers(ticket domain.Ticket) bool {
	if len(c.Priorities) > 0 {
		found := false
		for _, priority := range c.Priorities {
			if ticket.Priority == priority {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.TeamID != "" && !containsString(ticket.TeamIDs, c.TeamID) {
		return false
	}
	if c.AssignedToMe && (c.Viewer.ID == "" || ticket.AssigneeID != c.Viewer.ID) {
		return false
	}
	if c.RaisedByMe && (c.Viewer.Email == "" || !strings.EqualFold(ticket.ReporterEmail, c.Viewer.Email)) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(c.Search)); term != "" && !matchesSearch(ticket, term) {
		return false
	}
	loc := c.location()
	if c.CreatedFrom != nil && ticket.CreatedAt.Before(StartOfDay(*c.CreatedFrom, loc)) {
		return false
	}
	if c.CreatedTo != nil && ticket.CreatedAt.After(EndOfDay(*c.CreatedTo, loc)) {
		return false
	}
	return true
}

func matchesSearch(ticket domain.Ticket, term string) bool {
	if strings.Contains(strings.ToLower(ticket.Title), term) ||
		strings.Contains(strings.ToLower(ticket.Description), term) ||
		strings.Contains(strings.ToLower(ticket.ReporterEmail), term) {
		return true
	}
	for _, tag := range ticket.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
