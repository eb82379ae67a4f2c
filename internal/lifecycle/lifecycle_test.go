package lifecycle

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

var (
	userU = domain.Person{ID: "u", Name: "Uma", Email: "uma@example.com"}
	userV = domain.Person{ID: "v", Name: "Vic", Email: "vic@example.com"}
	t1    = domain.Team{ID: "t1", Name: "Platform"}
	t2    = domain.Team{ID: "t2", Name: "Mobile"}
)

func created(t *testing.T) domain.Ticket {
	t.Helper()
	result, err := NewTicket("ticket-1", "org", CreateInput{
		Title:         "Login broken",
		Description:   "Cannot sign in",
		Priority:      "high",
		TeamIDs:       []string{"t1"},
		ReporterEmail: "reporter@example.com",
	}, []domain.Team{t1}, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewTicket: %v", err)
	}
	return result.Ticket
}

func TestLifecycleScenario(t *testing.T) {
	ticket := created(t)
	if ticket.Status != domain.TicketStatusOpen || ticket.HasAssignee() {
		t.Fatalf("new ticket: status=%s assignee=%q", ticket.Status, ticket.AssigneeID)
	}

	claimed, err := ClaimTicket(ticket, userU)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Ticket.Status != domain.TicketStatusInProgress || claimed.Ticket.AssigneeID != "u" {
		t.Fatalf("after claim: %+v", claimed.Ticket)
	}
	if claimed.Event.Type != domain.EventClaimed {
		t.Errorf("claim event = %s", claimed.Event.Type)
	}

	resolved, err := ResolveTicket(claimed.Ticket, userU)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Ticket.Status != domain.TicketStatusResolved || resolved.Event.Type != domain.EventResolved {
		t.Fatalf("after resolve: %+v %s", resolved.Ticket, resolved.Event.Type)
	}

	reopened, err := ReopenTicket(resolved.Ticket, userV)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Ticket.Status != domain.TicketStatusInProgress || reopened.Ticket.AssigneeID != "v" {
		t.Fatalf("after reopen: %+v", reopened.Ticket)
	}
	change, ok := reopened.Event.Payload.(domain.StatusChange)
	if reopened.Event.Type != domain.EventStatusChanged || !ok {
		t.Fatalf("reopen event = %s %T", reopened.Event.Type, reopened.Event.Payload)
	}
	if change.From != domain.TicketStatusResolved || change.To != domain.TicketStatusInProgress {
		t.Errorf("reopen payload = %+v", change)
	}
	if got := change.Fields()["reopened_by"]; got != userV.Email {
		t.Errorf("reopened_by = %v", got)
	}
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	ticket := created(t)
	if _, err := ClaimTicket(ticket, userU); err != nil {
		t.Fatal(err)
	}
	if ticket.Status != domain.TicketStatusOpen || ticket.HasAssignee() || ticket.Assignee != nil {
		t.Fatalf("input changed: %+v", ticket)
	}
}

func TestPreconditions(t *testing.T) {
	open := created(t)
	inProgress, _ := ClaimTicket(open, userU)
	resolved, _ := ResolveTicket(inProgress.Ticket, userU)
	snoozed, _ := SnoozeTicket(open, userU)
	urgent, _ := EscalateTicket(open, userU)

	cases := []struct {
		name   string
		ticket domain.Ticket
		fn     Func
		actor  domain.Person
	}{
		{"double claim", inProgress.Ticket, ClaimTicket, userV},
		{"resolve resolved", resolved.Ticket, ResolveTicket, userU},
		{"snooze snoozed", snoozed.Ticket, SnoozeTicket, userU},
		{"unsnooze open", open, UnsnoozeTicket, userU},
		{"reopen open", open, ReopenTicket, userU},
		{"unassign open", open, UnassignTicket, userU},
		{"unassign someone else", inProgress.Ticket, UnassignTicket, userV},
		{"escalate urgent", urgent.Ticket, EscalateTicket, userU},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := tc.fn(tc.ticket, tc.actor)
			if !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
				t.Fatalf("expected precondition failure, got %v", err)
			}
			if result.Event.Type != "" {
				t.Errorf("failed transition produced event %s", result.Event.Type)
			}
		})
	}
}

func TestUnassignReturnsToOpen(t *testing.T) {
	claimed, _ := ClaimTicket(created(t), userU)
	result, err := UnassignTicket(claimed.Ticket, userU)
	if err != nil {
		t.Fatal(err)
	}
	if result.Ticket.Status != domain.TicketStatusOpen || result.Ticket.HasAssignee() || result.Ticket.Assignee != nil {
		t.Fatalf("after unassign: %+v", result.Ticket)
	}
}

func TestUnsnoozeAssignsActorWhenUnowned(t *testing.T) {
	snoozed, _ := SnoozeTicket(created(t), userU)
	result, err := UnsnoozeTicket(snoozed.Ticket, userV)
	if err != nil {
		t.Fatal(err)
	}
	if result.Ticket.AssigneeID != "v" || result.Ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("after unsnooze: %+v", result.Ticket)
	}

	claimed, _ := ClaimTicket(created(t), userU)
	snoozedOwned, _ := SnoozeTicket(claimed.Ticket, userU)
	kept, _ := UnsnoozeTicket(snoozedOwned.Ticket, userV)
	if kept.Ticket.AssigneeID != "u" {
		t.Errorf("unsnooze replaced the owner: %q", kept.Ticket.AssigneeID)
	}
}

// Random walks over every transition must keep in-progress owned and open
// unowned, and emit exactly one event per success.
func TestRandomWalkInvariants(t *testing.T) {
	actors := []domain.Person{userU, userV}
	names := []Transition{Claim, Resolve, Snooze, Unsnooze, Reopen, Unassign, Escalate}
	rng := rand.New(rand.NewSource(42))

	for walk := 0; walk < 200; walk++ {
		ticket := created(t)
		for step := 0; step < 30; step++ {
			fn, _ := Lookup(names[rng.Intn(len(names))])
			result, err := fn(ticket, actors[rng.Intn(len(actors))])
			if err != nil {
				if !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
					t.Fatalf("unexpected error: %v", err)
				}
				continue
			}
			if result.Event.Type == "" {
				t.Fatal("successful transition without event")
			}
			ticket = result.Ticket

			if ticket.Status == domain.TicketStatusInProgress && !ticket.HasAssignee() {
				t.Fatalf("in-progress without assignee: %+v", ticket)
			}
			if ticket.Status == domain.TicketStatusOpen && ticket.HasAssignee() {
				t.Fatalf("open with assignee: %+v", ticket)
			}
		}
	}
}

func TestRedirect(t *testing.T) {
	ticket := created(t)
	result, err := RedirectTicket(ticket, userU, []domain.Team{t1, t2})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.Ticket.TeamIDs, []string{"t1", "t2"}) || result.Ticket.TeamID != "t1" {
		t.Fatalf("teams = %v primary = %s", result.Ticket.TeamIDs, result.Ticket.TeamID)
	}
	if !result.TeamsChanged || result.Event.Type != domain.EventTeamChanged {
		t.Fatalf("event = %s", result.Event.Type)
	}
	if payload := result.Event.Payload.(domain.TeamChange); !reflect.DeepEqual(payload.To, []string{"t1", "t2"}) {
		t.Errorf("payload = %+v", payload)
	}

	if _, err := RedirectTicket(ticket, userU, []domain.Team{t1}); !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Errorf("same set accepted: %v", err)
	}
	if _, err := RedirectTicket(result.Ticket, userU, []domain.Team{t2, t1}); !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Errorf("reordered set accepted: %v", err)
	}
	if _, err := RedirectTicket(ticket, userU, nil); !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Errorf("empty target accepted: %v", err)
	}
}

func TestChangePriority(t *testing.T) {
	ticket := created(t)
	result, err := ChangeTicketPriority(ticket, userU, domain.TicketPriorityLow)
	if err != nil {
		t.Fatal(err)
	}
	payload := result.Event.Payload.(domain.PriorityChange)
	if payload.From != domain.TicketPriorityHigh || payload.To != domain.TicketPriorityLow {
		t.Errorf("payload = %+v", payload)
	}
	if _, err := ChangeTicketPriority(ticket, userU, domain.TicketPriorityHigh); !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Errorf("unchanged priority accepted: %v", err)
	}
	if _, err := ChangeTicketPriority(ticket, userU, "critical"); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("unknown priority accepted: %v", err)
	}
}

func TestAssign(t *testing.T) {
	ticket := created(t)
	result, err := AssignTicket(ticket, userU, userV)
	if err != nil {
		t.Fatal(err)
	}
	if result.Ticket.Status != domain.TicketStatusInProgress || result.Ticket.AssigneeID != "v" {
		t.Fatalf("after assign: %+v", result.Ticket)
	}
	if _, err := AssignTicket(result.Ticket, userU, userV); !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Errorf("reassign to same member accepted: %v", err)
	}
}

func TestNewTicketValidation(t *testing.T) {
	valid := CreateInput{
		Title:         "Title",
		Description:   "Desc",
		TeamIDs:       []string{"t1"},
		ReporterEmail: "r@example.com",
	}
	cases := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"blank title", func(in *CreateInput) { in.Title = "   " }, "title"},
		{"blank description", func(in *CreateInput) { in.Description = "" }, "description"},
		{"no teams", func(in *CreateInput) { in.TeamIDs = nil }, "team_ids"},
		{"blank team", func(in *CreateInput) { in.TeamIDs = []string{" "} }, "team_ids"},
		{"no reporter", func(in *CreateInput) { in.ReporterEmail = "" }, "reporter_email"},
		{"bad priority", func(in *CreateInput) { in.Priority = "critical" }, "priority"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			in.TeamIDs = append([]string(nil), valid.TeamIDs...)
			tc.mutate(&in)
			_, err := NewTicket("id", "org", in, nil, time.Now())
			domainErr := apperrors.ToDomainError(err)
			if domainErr == nil || domainErr.Code != apperrors.CodeValidationFailed {
				t.Fatalf("expected validation failure, got %v", err)
			}
			if _, ok := domainErr.Details[tc.field]; !ok {
				t.Errorf("details %v missing %s", domainErr.Details, tc.field)
			}
		})
	}

	result, err := NewTicket("id", "org", valid, []domain.Team{t1}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if result.Ticket.Priority != domain.TicketPriorityMedium || result.Ticket.Category != domain.DefaultCategory {
		t.Errorf("defaults: %s %s", result.Ticket.Priority, result.Ticket.Category)
	}
	if result.Event.Type != domain.EventCreated {
		t.Errorf("event = %s", result.Event.Type)
	}
}

func TestTouchIsMonotonic(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticket := domain.Ticket{UpdatedAt: base}
	Touch(&ticket, base.Add(-time.Hour))
	if !ticket.UpdatedAt.After(base) {
		t.Fatalf("updatedAt went backwards: %v", ticket.UpdatedAt)
	}
	later := base.Add(time.Hour)
	Touch(&ticket, later)
	if !ticket.UpdatedAt.Equal(later) {
		t.Fatalf("updatedAt = %v, want %v", ticket.UpdatedAt, later)
	}
}
