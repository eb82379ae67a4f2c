package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/mapper"
	"github.com/spec-kit/triage-service/internal/notification"
	"github.com/spec-kit/triage-service/internal/repository"
)

// FeedNudger is told when a reporter's feed has new activity.
type FeedNudger interface {
	Nudge(reporterEmail string)
}

// NotificationService feeds reporter notification projections and routes
// committed events to live feeds.
type NotificationService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

var _ notification.Source = (*NotificationService)(nil)

// Candidates returns the newest events on tickets reported by reporterEmail.
func (n *NotificationService) Candidates(ctx context.Context, reporterEmail string, limit int) ([]mapper.NotificationCandidate, error) {
	if limit <= 0 {
		limit = notification.DefaultLimit
	}
	rows, err := n.store.Repos().Events.ListForReporter(ctx, reporterEmail, limit)
	if err != nil {
		return nil, storeError(err, "event", reporterEmail)
	}
	return mapper.NotificationCandidates(rows), nil
}

// RegisterHandlers subscribes to every event and nudges the reporter's feed
// unless the reporter caused the event.
func (n *NotificationService) RegisterHandlers(nudger FeedNudger) {
	if n.dispatcher == nil || nudger == nil {
		return
	}
	n.dispatcher.Subscribe(func(ctx context.Context, event events.Published) error {
		if event.ReporterEmail == "" || event.SelfCaused() {
			return nil
		}
		n.logger.Debug("notification queued",
			zap.String("ticket_id", event.Event.TicketID),
			zap.String("event_type", string(event.Event.Type)),
			zap.String("message", events.DescribeForReporter(event.Event.Type, event.Event.Payload)),
		)
		nudger.Nudge(event.ReporterEmail)
		return nil
	})
}
