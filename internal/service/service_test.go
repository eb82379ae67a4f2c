package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/lifecycle"
	"github.com/spec-kit/triage-service/internal/listing"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/repository/memstore"
	"github.com/spec-kit/triage-service/internal/session"
	"github.com/spec-kit/triage-service/internal/storage"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

const org = "org-1"

var (
	reporter = domain.Actor{ID: "r1", Name: "Rita", Email: "rita@example.com", OrganizationID: org}
	userU    = domain.Actor{ID: "u1", Name: "Uma", Email: "uma@example.com", OrganizationID: org}
	userV    = domain.Actor{ID: "v1", Name: "Vic", Email: "vic@example.com", OrganizationID: org}
	outsider = domain.Actor{ID: "x1", Name: "Xan", Email: "xan@other.com", OrganizationID: "org-2"}
)

func stepClock() Clock {
	var mu sync.Mutex
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newStore() *memstore.Store {
	store := memstore.New()
	store.PutTeam(repository.TeamRow{ID: "t1", OrganizationID: org, Name: "Platform"})
	store.PutTeam(repository.TeamRow{ID: "t2", OrganizationID: org, Name: "Mobile"})
	store.PutTeam(repository.TeamRow{ID: "t9", OrganizationID: "org-2", Name: "Elsewhere"})
	return store
}

func newTickets(store repository.Store) *TicketService {
	return NewTicketService(TicketDependencies{Store: store, Metrics: observability.NewMetrics(), Clock: stepClock()})
}

func createTicket(t *testing.T, svc *TicketService) *domain.Ticket {
	t.Helper()
	ticket, err := svc.Create(context.Background(), reporter, lifecycle.CreateInput{
		Title:       "Login broken",
		Description: "Cannot sign in",
		Priority:    "high",
		TeamIDs:     []string{"t1"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return ticket
}

func eventTypes(t *testing.T, svc *TicketService, ticketID string) []domain.EventType {
	t.Helper()
	list, err := svc.Events(context.Background(), reporter, ticketID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	out := make([]domain.EventType, 0, len(list))
	for _, e := range list {
		out = append(out, e.Type)
	}
	return out
}

type failingEvents struct{ repository.EventRepository }

func (failingEvents) Create(context.Context, *repository.EventRow) error {
	return errors.New("disk full")
}

// failingEventStore shares data with the wrapped store but cannot append events.
type failingEventStore struct{ *memstore.Store }

func (s failingEventStore) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(repos repository.Repositories) error {
		repos.Events = failingEvents{repos.Events}
		return fn(repos)
	})
}

func TestTicketLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTickets(newStore())

	ticket := createTicket(t, svc)
	if ticket.Status != domain.TicketStatusOpen || ticket.HasAssignee() {
		t.Fatalf("created = %+v", ticket)
	}
	if ticket.TeamID != "t1" || ticket.Team == nil || ticket.Team.Name != "Platform" {
		t.Errorf("team = %+v", ticket.Team)
	}
	if ticket.ReporterEmail != reporter.Email || ticket.Category != domain.DefaultCategory {
		t.Errorf("defaults not applied: %+v", ticket)
	}

	claimed, err := svc.Transition(ctx, userU, ticket.ID, lifecycle.Claim)
	if err != nil {
		t.Fatal(err)
	}
	if claimed.Status != domain.TicketStatusInProgress || claimed.AssigneeID != userU.ID {
		t.Fatalf("claimed = %+v", claimed)
	}
	resolved, err := svc.Transition(ctx, userU, ticket.ID, lifecycle.Resolve)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Status != domain.TicketStatusResolved {
		t.Fatalf("resolved = %+v", resolved)
	}
	reopened, err := svc.Transition(ctx, userV, ticket.ID, lifecycle.Reopen)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Status != domain.TicketStatusInProgress || reopened.AssigneeID != userV.ID {
		t.Fatalf("reopened = %+v", reopened)
	}
	if !reopened.UpdatedAt.After(resolved.UpdatedAt) {
		t.Error("updatedAt did not advance")
	}

	got := eventTypes(t, svc, ticket.ID)
	want := []domain.EventType{domain.EventCreated, domain.EventClaimed, domain.EventResolved, domain.EventStatusChanged}
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	list, _ := svc.Events(ctx, reporter, ticket.ID)
	fields := list[3].Payload.Fields()
	if fields["from"] != "resolved" || fields["to"] != "in-progress" {
		t.Errorf("status_changed payload = %v", fields)
	}
	if list[1].Actor.ID != userU.ID || list[3].Actor.ID != userV.ID {
		t.Error("events not attributed to their actors")
	}
}

func TestFailedTransitionAppendsNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTickets(newStore())
	ticket := createTicket(t, svc)

	_, err := svc.Transition(ctx, userU, ticket.ID, lifecycle.Unsnooze)
	if !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Transition(ctx, userU, ticket.ID, "teleport"); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("unknown transition err = %v", err)
	}
	if got := eventTypes(t, svc, ticket.ID); len(got) != 1 {
		t.Errorf("events = %v", got)
	}
}

func TestConcurrentClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	svc := newTickets(newStore())
	ticket := createTicket(t, svc)

	const claimers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []string
		rejected int
	)
	for i := 0; i < claimers; i++ {
		actor := domain.Actor{ID: string(rune('a' + i)), Name: "Agent", Email: "agent@example.com", OrganizationID: org}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(ctx, actor, ticket.ID, lifecycle.Claim)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, actor.ID)
			case apperrors.IsCode(err, apperrors.CodePreconditionFailed):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(winners) != 1 || rejected != claimers-1 {
		t.Fatalf("winners=%v rejected=%d", winners, rejected)
	}
	final, err := svc.Get(ctx, reporter, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.AssigneeID != winners[0] {
		t.Errorf("assignee = %s, winner = %s", final.AssigneeID, winners[0])
	}
	claims := 0
	for _, typ := range eventTypes(t, svc, ticket.ID) {
		if typ == domain.EventClaimed {
			claims++
		}
	}
	if claims != 1 {
		t.Errorf("claimed events = %d", claims)
	}
}

func TestTransitionIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	svc := newTickets(store)
	ticket := createTicket(t, svc)

	broken := NewTicketService(TicketDependencies{Store: failingEventStore{store}, Clock: stepClock()})
	_, err := broken.Transition(ctx, userU, ticket.ID, lifecycle.Claim)
	if !apperrors.IsCode(err, apperrors.CodeStorageFailure) {
		t.Fatalf("err = %v", err)
	}

	after, err := svc.Get(ctx, reporter, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != domain.TicketStatusOpen || after.HasAssignee() || !after.UpdatedAt.Equal(ticket.UpdatedAt) {
		t.Errorf("ticket changed despite failed event write: %+v", after)
	}
	if got := eventTypes(t, svc, ticket.ID); len(got) != 1 {
		t.Errorf("events = %v", got)
	}
}

func TestRedirectScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTickets(newStore())
	ticket := createTicket(t, svc)

	redirected, err := svc.Redirect(ctx, userU, ticket.ID, []string{"t1", "t2", "t2"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(redirected.TeamIDs, ",") != "t1,t2" || redirected.TeamID != "t1" {
		t.Fatalf("teams = %v primary = %s", redirected.TeamIDs, redirected.TeamID)
	}
	if len(redirected.Teams) != 2 || redirected.Teams[1].Name != "Mobile" {
		t.Errorf("resolved teams = %+v", redirected.Teams)
	}
	list, _ := svc.Events(ctx, reporter, ticket.ID)
	last := list[len(list)-1]
	if last.Type != domain.EventTeamChanged {
		t.Fatalf("last event = %s", last.Type)
	}
	if change, ok := last.Payload.(domain.TeamChange); !ok || strings.Join(change.To, ",") != "t1,t2" {
		t.Errorf("payload = %#v", last.Payload)
	}

	if _, err := svc.Redirect(ctx, userU, ticket.ID, []string{"t2", "t1"}); !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Errorf("same set err = %v", err)
	}
	if _, err := svc.Redirect(ctx, userU, ticket.ID, []string{"t9"}); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("foreign team err = %v", err)
	}
	if _, err := svc.Redirect(ctx, userU, ticket.ID, nil); !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Errorf("empty set err = %v", err)
	}
}

func TestPriorityAndAssign(t *testing.T) {
	ctx := context.Background()
	svc := newTickets(newStore())
	ticket := createTicket(t, svc)

	if _, err := svc.ChangePriority(ctx, userU, ticket.ID, domain.TicketPriorityHigh); !apperrors.IsCode(err, apperrors.CodePreconditionFailed) {
		t.Errorf("unchanged priority err = %v", err)
	}
	changed, err := svc.ChangePriority(ctx, userU, ticket.ID, domain.TicketPriorityLow)
	if err != nil || changed.Priority != domain.TicketPriorityLow {
		t.Fatalf("change priority = %+v, %v", changed, err)
	}
	assigned, err := svc.Assign(ctx, userU, ticket.ID, userV.Person())
	if err != nil {
		t.Fatal(err)
	}
	if assigned.AssigneeID != userV.ID || assigned.Status != domain.TicketStatusInProgress {
		t.Errorf("assigned = %+v", assigned)
	}
	escalated, err := svc.Transition(ctx, userU, ticket.ID, lifecycle.Escalate)
	if err != nil || escalated.Priority != domain.TicketPriorityUrgent {
		t.Fatalf("escalate = %+v, %v", escalated, err)
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTickets(newStore())

	cases := []lifecycle.CreateInput{
		{Title: "  ", Description: "d", TeamIDs: []string{"t1"}},
		{Title: "t", Description: "d"},
		{Title: "t", Description: "d", TeamIDs: []string{"missing"}},
		{Title: "t", Description: "d", TeamIDs: []string{"t9"}},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, reporter, in); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
			t.Errorf("case %d: err = %v", i, err)
		}
	}
	list, err := svc.List(ctx, reporter, TicketListQuery{})
	if err != nil || len(list.Tickets) != 0 {
		t.Errorf("invalid creates left tickets: %v %v", list, err)
	}
}

func TestDeleteRequiresReporter(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryStore()
	store := newStore()
	svc := NewTicketService(TicketDependencies{Store: store, Blobs: blobs, Clock: stepClock()})
	ticket := createTicket(t, svc)

	uploads := NewAttachmentService(AttachmentDependencies{Store: store, Blobs: blobs, Clock: stepClock()})
	if _, err := uploads.Upload(ctx, reporter, ticket.ID, UploadInput{Filename: "a.txt", Body: strings.NewReader("x")}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, userU, ticket.ID); !apperrors.IsCode(err, apperrors.CodeNotAuthorized) {
		t.Fatalf("non-reporter err = %v", err)
	}
	shouting := reporter
	shouting.Email = strings.ToUpper(reporter.Email)
	if err := svc.Delete(ctx, shouting, ticket.ID); err != nil {
		t.Fatalf("reporter delete: %v", err)
	}
	if _, err := svc.Get(ctx, reporter, ticket.ID); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
	if err := svc.Delete(ctx, reporter, ticket.ID); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if blobs.Len() != 0 {
		t.Errorf("blobs left after delete: %d", blobs.Len())
	}
}

func TestOrganizationsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := newTickets(newStore())
	ticket := createTicket(t, svc)

	if _, err := svc.Get(ctx, outsider, ticket.ID); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("get err = %v", err)
	}
	if _, err := svc.Transition(ctx, outsider, ticket.ID, lifecycle.Claim); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("claim err = %v", err)
	}
	list, err := svc.List(ctx, outsider, TicketListQuery{})
	if err != nil || len(list.Tickets) != 0 {
		t.Errorf("outsider list = %v, %v", list, err)
	}
}

func TestListCountsAndNumbers(t *testing.T) {
	ctx := context.Background()
	svc := newTickets(newStore())
	first := createTicket(t, svc)
	second := createTicket(t, svc)
	createTicket(t, svc)
	if _, err := svc.Transition(ctx, userU, second.ID, lifecycle.Claim); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(ctx, userU, TicketListQuery{
		Criteria:  listing.Criteria{Statuses: []domain.TicketStatus{domain.TicketStatusOpen}},
		SortKey:   listing.SortNumber,
		Direction: listing.Asc,
	})
	if err != nil {
		t.Fatal(err)
	}
	if list.Counts.Open != 2 || list.Counts.InProgress != 1 || list.Counts.All != 3 {
		t.Errorf("counts = %+v", list.Counts)
	}
	if len(list.Tickets) != 2 || list.Tickets[0].ID != first.ID || list.Tickets[0].Number != 1 || list.Tickets[1].Number != 3 {
		t.Errorf("tickets = %+v", list.Tickets)
	}

	mine, _ := svc.List(ctx, userU, TicketListQuery{Criteria: listing.Criteria{AssignedToMe: true}})
	if len(mine.Tickets) != 1 || mine.Tickets[0].ID != second.ID || mine.Tickets[0].Number != 2 {
		t.Errorf("assigned to me = %+v", mine.Tickets)
	}
}

func TestCommentThread(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	tickets := newTickets(store)
	comments := NewCommentService(CommentDependencies{Store: store, Clock: stepClock()})
	ticket := createTicket(t, tickets)
	other := createTicket(t, tickets)

	root, err := comments.Add(ctx, userU, ticket.ID, "Looking into it", "")
	if err != nil {
		t.Fatal(err)
	}
	reply, err := comments.Add(ctx, reporter, ticket.ID, "Thanks", root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := comments.Add(ctx, userU, other.ID, "wrong thread", root.ID); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("cross-ticket reply err = %v", err)
	}
	if _, err := comments.Add(ctx, userU, ticket.ID, "   ", ""); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("blank body err = %v", err)
	}

	tree, err := comments.Thread(ctx, reporter, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || len(tree[0].Replies) != 1 || tree[0].Replies[0].ID != reply.ID {
		t.Fatalf("tree = %+v", tree)
	}

	if err := comments.Delete(ctx, reporter, root.ID); !apperrors.IsCode(err, apperrors.CodeNotAuthorized) {
		t.Errorf("foreign delete err = %v", err)
	}
	if err := comments.Delete(ctx, userU, root.ID); err != nil {
		t.Fatal(err)
	}
	tree, _ = comments.Thread(ctx, reporter, ticket.ID)
	if len(tree) != 1 || tree[0].ID != reply.ID {
		t.Errorf("orphaned reply should become a root: %+v", tree)
	}

	commented := 0
	for _, typ := range eventTypes(t, tickets, ticket.ID) {
		if typ == domain.EventCommented {
			commented++
		}
	}
	if commented != 2 {
		t.Errorf("commented events = %d", commented)
	}
}

func TestReactionToggleScenario(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	tickets := newTickets(store)
	comments := NewCommentService(CommentDependencies{Store: store, Clock: stepClock()})
	ticket := createTicket(t, tickets)
	comment, err := comments.Add(ctx, userU, ticket.ID, "hello", "")
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		kind   domain.ReactionKind
		action toggleOutcome
	}{
		{domain.ReactionHeart, toggleOutcome{"insert", domain.ReactionHeart}},
		{domain.ReactionSmile, toggleOutcome{"replace", domain.ReactionSmile}},
		{domain.ReactionSmile, toggleOutcome{"remove", ""}},
	}
	for i, step := range steps {
		result, err := comments.ToggleReaction(ctx, userV, comment.ID, step.kind)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if result.Action.String() != step.action.Action {
			t.Errorf("step %d action = %s", i, result.Action)
		}
		if step.action.Kind == "" {
			if len(result.Reactions) != 0 || result.Summary.Total != 0 {
				t.Errorf("step %d reactions = %+v", i, result.Reactions)
			}
			continue
		}
		if len(result.Reactions) != 1 || result.Reactions[0].Kind != step.action.Kind {
			t.Fatalf("step %d reactions = %+v", i, result.Reactions)
		}
		if result.Summary.Mine != step.action.Kind {
			t.Errorf("step %d mine = %q", i, result.Summary.Mine)
		}
	}

	if _, err := comments.ToggleReaction(ctx, userU, comment.ID, domain.ReactionHeart); err != nil {
		t.Fatal(err)
	}
	result, err := comments.ToggleReaction(ctx, userV, comment.ID, domain.ReactionHeart)
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.Total != 2 || len(result.Summary.Top) != 1 || result.Summary.Top[0].Count != 2 {
		t.Errorf("summary = %+v", result.Summary)
	}
	roots, err := comments.Thread(ctx, userV, ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 1 || len(roots[0].Reactions) != len(result.Reactions) {
		t.Errorf("stored reactions = %+v, returned %+v", roots, result.Reactions)
	}

	if _, err := comments.ToggleReaction(ctx, userV, comment.ID, "shrug"); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Errorf("invalid kind err = %v", err)
	}
	if _, err := comments.ToggleReaction(ctx, userV, "missing", domain.ReactionHeart); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("missing comment err = %v", err)
	}
}

// toggleOutcome is the expected action and the kind left afterwards.
type toggleOutcome struct {
	Action string
	Kind   domain.ReactionKind
}

func TestAttachmentUpload(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	blobs := storage.NewMemoryStore()
	tickets := newTickets(store)
	uploads := NewAttachmentService(AttachmentDependencies{Store: store, Blobs: blobs, Clock: stepClock()})
	ticket := createTicket(t, tickets)

	attachment, err := uploads.Upload(ctx, reporter, ticket.ID, UploadInput{
		Filename: "../screens/shot.png",
		Body:     strings.NewReader("png-bytes"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if attachment.Filename != "shot.png" || attachment.ContentType != DefaultContentType {
		t.Errorf("attachment = %+v", attachment)
	}
	if !strings.HasPrefix(attachment.StoragePath, ticket.ID+"/") || !strings.HasSuffix(attachment.StoragePath, "-shot.png") {
		t.Errorf("path = %s", attachment.StoragePath)
	}
	if attachment.SizeBytes != int64(len("png-bytes")) || len(attachment.Checksum) != 64 {
		t.Errorf("size=%d checksum=%q", attachment.SizeBytes, attachment.Checksum)
	}
	if data, ok := blobs.Get(attachment.StoragePath); !ok || string(data) != "png-bytes" {
		t.Errorf("blob = %q, %v", data, ok)
	}

	listed, err := uploads.List(ctx, reporter, ticket.ID)
	if err != nil || len(listed) != 1 || listed[0].URL == "" {
		t.Fatalf("list = %+v, %v", listed, err)
	}
	types := eventTypes(t, tickets, ticket.ID)
	if types[len(types)-1] != domain.EventAttachmentAdded {
		t.Errorf("events = %v", types)
	}
}

func TestAttachmentUploadRollsBackBlob(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	blobs := storage.NewMemoryStore()
	ticket := createTicket(t, newTickets(store))

	broken := NewAttachmentService(AttachmentDependencies{Store: failingEventStore{store}, Blobs: blobs, Clock: stepClock()})
	if _, err := broken.Upload(ctx, reporter, ticket.ID, UploadInput{Filename: "a.txt", Body: strings.NewReader("x")}); err == nil {
		t.Fatal("expected failure")
	}
	if blobs.Len() != 0 {
		t.Errorf("orphaned blobs: %d", blobs.Len())
	}
	listed, _ := NewAttachmentService(AttachmentDependencies{Store: store, Blobs: blobs}).List(ctx, reporter, ticket.ID)
	if len(listed) != 0 {
		t.Errorf("metadata left behind: %+v", listed)
	}

	blobs.FailPut = errors.New("bucket gone")
	uploads := NewAttachmentService(AttachmentDependencies{Store: store, Blobs: blobs})
	if _, err := uploads.Upload(ctx, reporter, ticket.ID, UploadInput{Filename: "a.txt", Body: strings.NewReader("x")}); !apperrors.IsCode(err, apperrors.CodeStorageFailure) {
		t.Errorf("put failure err = %v", err)
	}
}

type recordingNudger struct {
	mu     sync.Mutex
	emails []string
}

func (r *recordingNudger) Nudge(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, email)
}

func TestNotificationsSkipSelfCausedEvents(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	nudger := &recordingNudger{}
	notifications := NewNotificationService(NotificationDependencies{Store: store, Dispatcher: dispatcher})
	notifications.RegisterHandlers(nudger)

	svc := NewTicketService(TicketDependencies{Store: store, Dispatcher: dispatcher, Clock: stepClock()})
	ticket := createTicket(t, svc)
	if _, err := svc.Transition(ctx, userU, ticket.ID, lifecycle.Claim); err != nil {
		t.Fatal(err)
	}

	if len(nudger.emails) != 1 || nudger.emails[0] != reporter.Email {
		t.Errorf("nudged = %v", nudger.emails)
	}

	candidates, err := notifications.Candidates(ctx, reporter.Email, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 || candidates[0].Event.Type != domain.EventClaimed {
		t.Errorf("candidates = %+v", candidates)
	}
	if candidates[0].TicketTitle != "Login broken" {
		t.Errorf("title = %q", candidates[0].TicketTitle)
	}
}

func TestFilterServiceSanitizes(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	filters := NewFilterService(store, session.NewMemoryStore())

	saved, err := filters.Save(ctx, userU, listing.SavedFilter{TeamID: "t2", Status: "open", SortKey: "bogus"})
	if err != nil {
		t.Fatal(err)
	}
	if saved.TeamID != "t2" || saved.SortKey != "" {
		t.Errorf("saved = %+v", saved)
	}

	store.PutTeam(repository.TeamRow{ID: "t2", OrganizationID: "org-2", Name: "Moved"})
	loaded, err := filters.Load(ctx, userU)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.TeamID != "" || loaded.Status != "open" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestFilterServiceQuery(t *testing.T) {
	ctx := context.Background()
	filters := NewFilterService(newStore(), session.NewMemoryStore())

	query, err := filters.Query(ctx, userU)
	if err != nil {
		t.Fatal(err)
	}
	if query.SortKey != listing.SortCreatedAt || query.Direction != listing.Desc || len(query.Criteria.Statuses) != 0 {
		t.Errorf("default query = %+v", query)
	}

	if _, err := filters.Save(ctx, userU, listing.SavedFilter{Status: "resolved", AssignedToMe: true, SortKey: "priority", SortDir: "asc"}); err != nil {
		t.Fatal(err)
	}
	query, err = filters.Query(ctx, userU)
	if err != nil {
		t.Fatal(err)
	}
	if len(query.Criteria.Statuses) != 1 || query.Criteria.Statuses[0] != domain.TicketStatusResolved {
		t.Errorf("statuses = %v", query.Criteria.Statuses)
	}
	if !query.Criteria.AssignedToMe || query.Criteria.Viewer.ID != userU.ID {
		t.Errorf("criteria = %+v", query.Criteria)
	}
	if query.SortKey != listing.SortPriority || query.Direction != listing.Asc {
		t.Errorf("sort = %s %s", query.SortKey, query.Direction)
	}
}
