package listing

import (
	"reflect"
	"testing"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

var day = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func ticket(id string, status domain.TicketStatus, priority domain.TicketPriority, hours int) domain.Ticket {
	return domain.Ticket{
		ID:            id,
		Title:         "Ticket " + id,
		Status:        status,
		Priority:      priority,
		ReporterEmail: "reporter@example.com",
		TeamIDs:       []string{"t1"},
		CreatedAt:     day.Add(time.Duration(hours) * time.Hour),
		UpdatedAt:     day.Add(time.Duration(hours) * time.Hour),
	}
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func sample() []domain.Ticket {
	a := ticket("a", domain.TicketStatusOpen, domain.TicketPriorityHigh, 1)
	b := ticket("b", domain.TicketStatusInProgress, domain.TicketPriorityUrgent, 2)
	b.AssigneeID = "me"
	c := ticket("c", domain.TicketStatusInProgress, domain.TicketPriorityLow, 3)
	c.AssigneeID = "other"
	c.TeamIDs = []string{"t2"}
	d := ticket("d", domain.TicketStatusResolved, domain.TicketPriorityHigh, 30)
	d.ReporterEmail = "Viewer@Example.com"
	d.Tags = []string{"Billing"}
	e := ticket("e", domain.TicketStatusSnoozed, domain.TicketPriorityMedium, 50)
	return []domain.Ticket{a, b, c, d, e}
}

func TestCountsIgnoreStatusFilter(t *testing.T) {
	tickets := sample()
	filters := []Criteria{
		{},
		{Priorities: []domain.TicketPriority{domain.TicketPriorityHigh, domain.TicketPriorityLow}},
		{TeamID: "t1"},
		{Search: "ticket"},
	}
	for _, criteria := range filters {
		all := Apply(tickets, criteria)
		criteria.Statuses = []domain.TicketStatus{domain.TicketStatusOpen}
		open := Apply(tickets, criteria)
		if all.Counts != open.Counts {
			t.Errorf("counts changed with status filter: %+v vs %+v", all.Counts, open.Counts)
		}
		for _, ticket := range open.Visible {
			if ticket.Status != domain.TicketStatusOpen {
				t.Errorf("status filter leaked %s", ticket.ID)
			}
		}
	}
}

func TestFilters(t *testing.T) {
	viewer := Viewer{ID: "me", Email: "viewer@example.com"}
	from := time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"none", Criteria{}, []string{"a", "b", "c", "d", "e"}},
		{"priority", Criteria{Priorities: []domain.TicketPriority{domain.TicketPriorityHigh}}, []string{"a", "d"}},
		{"team", Criteria{TeamID: "t2"}, []string{"c"}},
		{"assigned to me", Criteria{AssignedToMe: true, Viewer: viewer}, []string{"b"}},
		{"raised by me ignores case", Criteria{RaisedByMe: true, Viewer: viewer}, []string{"d"}},
		{"search tag", Criteria{Search: "  billing "}, []string{"d"}},
		{"search reporter", Criteria{Search: "VIEWER@"}, []string{"d"}},
		{"date range is whole days", Criteria{CreatedFrom: &from, CreatedTo: &to}, []string{"d"}},
		{"combined", Criteria{Statuses: []domain.TicketStatus{domain.TicketStatusInProgress}, TeamID: "t1"}, []string{"b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Apply(sample(), tc.criteria).Visible)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSortStableBothDirections(t *testing.T) {
	tickets := sample()
	asc := ids(Sort(tickets, SortPriority, Asc))
	if !reflect.DeepEqual(asc, []string{"b", "a", "d", "e", "c"}) {
		t.Errorf("priority asc = %v", asc)
	}
	desc := ids(Sort(tickets, SortPriority, Desc))
	if !reflect.DeepEqual(desc, []string{"c", "e", "a", "d", "b"}) {
		t.Errorf("priority desc = %v", desc)
	}
	status := ids(Sort(tickets, SortStatus, Asc))
	if !reflect.DeepEqual(status, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("status asc = %v", status)
	}
	if !reflect.DeepEqual(ids(tickets), []string{"a", "b", "c", "d", "e"}) {
		t.Error("Sort modified its input")
	}
}

func TestSortByTitleIgnoresCase(t *testing.T) {
	x := ticket("x", domain.TicketStatusOpen, domain.TicketPriorityLow, 1)
	x.Title = "beta"
	y := ticket("y", domain.TicketStatusOpen, domain.TicketPriorityLow, 2)
	y.Title = "Alpha"
	if got := ids(Sort([]domain.Ticket{x, y}, SortTitle, Asc)); !reflect.DeepEqual(got, []string{"y", "x"}) {
		t.Errorf("got %v", got)
	}
}

func TestAssignNumbers(t *testing.T) {
	late := ticket("late", domain.TicketStatusOpen, domain.TicketPriorityLow, 5)
	early := ticket("early", domain.TicketStatusOpen, domain.TicketPriorityLow, 1)
	tie := ticket("tie", domain.TicketStatusOpen, domain.TicketPriorityLow, 1)

	numbered := AssignNumbers([]domain.Ticket{late, early, tie})
	got := map[string]int{}
	for _, t := range numbered {
		got[t.ID] = t.Number
	}
	want := map[string]int{"early": 1, "tie": 2, "late": 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("numbers = %v", got)
	}
	if numbered[0].ID != "late" {
		t.Error("AssignNumbers reordered its input")
	}

	sorted := ids(Sort(append(numbered, ticket("unnumbered", domain.TicketStatusOpen, domain.TicketPriorityLow, 0)), SortNumber, Asc))
	if !reflect.DeepEqual(sorted, []string{"early", "tie", "late", "unnumbered"}) {
		t.Errorf("number sort = %v", sorted)
	}
}

func TestSavedFilterSanitize(t *testing.T) {
	teams := []domain.Team{{ID: "t1"}}
	saved := SavedFilter{
		Status:      "archived",
		Priorities:  []string{"high", "critical"},
		TeamID:      "gone",
		CreatedFrom: "2024-06-01",
		CreatedTo:   "June 5",
		SortKey:     "title",
		SortDir:     "sideways",
		Search:      " login ",
	}
	got := saved.Sanitize(teams)
	want := SavedFilter{
		Priorities:  []string{"high"},
		CreatedFrom: "2024-06-01",
		SortKey:     "title",
		Search:      "login",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	kept := SavedFilter{TeamID: "t1", Status: "open"}.Sanitize(teams)
	if kept.TeamID != "t1" || kept.Status != "open" {
		t.Errorf("valid values dropped: %+v", kept)
	}

	criteria := got.Criteria(Viewer{ID: "me"})
	if criteria.CreatedFrom == nil || !criteria.CreatedFrom.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("createdFrom = %v", criteria.CreatedFrom)
	}
}

func TestSortStatusFollowsTabOrder(t *testing.T) {
	tickets := []domain.Ticket{
		ticket("snoozed", domain.TicketStatusSnoozed, domain.TicketPriorityLow, 1),
		ticket("progress", domain.TicketStatusInProgress, domain.TicketPriorityLow, 2),
		ticket("resolved", domain.TicketStatusResolved, domain.TicketPriorityLow, 3),
		ticket("open", domain.TicketStatusOpen, domain.TicketPriorityLow, 4),
	}
	got := ids(Sort(tickets, SortStatus, Asc))
	if !reflect.DeepEqual(got, []string{"open", "progress", "resolved", "snoozed"}) {
		t.Errorf("status asc = %v", got)
	}
}
