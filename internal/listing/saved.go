package listing

import (
	"strings"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// DateLayout is the date-only layout used by saved filters.
const DateLayout = "2006-01-02"

// SavedFilter is a member's persisted filter configuration.
type SavedFilter struct {
	Status       string   `json:"status,omitempty"`
	Priorities   []string `json:"priority,omitempty"`
	TeamID       string   `json:"teamId,omitempty"`
	AssignedToMe bool     `json:"assignedToMe,omitempty"`
	RaisedByMe   bool     `json:"raisedByMe,omitempty"`
	CreatedFrom  string   `json:"createdFrom,omitempty"`
	CreatedTo    string   `json:"createdTo,omitempty"`
	Search       string   `json:"search,omitempty"`
	SortKey      string   `json:"sortKey,omitempty"`
	SortDir      string   `json:"sortDir,omitempty"`
}

// Sanitize drops values that no longer apply: a team that does not exist,
// unknown statuses and priorities, and malformed dates.
func (f SavedFilter) Sanitize(teams []domain.Team) SavedFilter {
	out := f
	if out.TeamID != "" {
		found := false
		for _, team := range teams {
			if team.ID == out.TeamID {
				found = true
				break
			}
		}
		if !found {
			out.TeamID = ""
		}
	}
	if out.Status != "" && !domain.TicketStatus(out.Status).Valid() {
		out.Status = ""
	}
	priorities := make([]string, 0, len(out.Priorities))
	for _, p := range out.Priorities {
		if domain.TicketPriority(p).Valid() {
			priorities = append(priorities, p)
		}
	}
	out.Priorities = priorities
	if _, err := time.Parse(DateLayout, out.CreatedFrom); err != nil {
		out.CreatedFrom = ""
	}
	if _, err := time.Parse(DateLayout, out.CreatedTo); err != nil {
		out.CreatedTo = ""
	}
	if !SortKey(out.SortKey).Valid() {
		out.SortKey = ""
	}
	if out.SortDir != string(Asc) && out.SortDir != string(Desc) {
		out.SortDir = ""
	}
	out.Search = strings.TrimSpace(out.Search)
	return out
}

// Criteria converts the saved filter for viewer.
func (f SavedFilter) Criteria(viewer Viewer) Criteria {
	criteria := Criteria{
		TeamID:       f.TeamID,
		AssignedToMe: f.AssignedToMe,
		RaisedByMe:   f.RaisedByMe,
		Search:       f.Search,
		Viewer:       viewer,
	}
	if f.Status != "" {
		criteria.Statuses = []domain.TicketStatus{domain.TicketStatus(f.Status)}
	}
	for _, p := range f.Priorities {
		criteria.Priorities = append(criteria.Priorities, domain.TicketPriority(p))
	}
	if from, err := time.Parse(DateLayout, f.CreatedFrom); err == nil {
		criteria.CreatedFrom = &from
	}
	if to, err := time.Parse(DateLayout, f.CreatedTo); err == nil {
		criteria.CreatedTo = &to
	}
	return criteria
}
