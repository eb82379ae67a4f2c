package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/mapper"
)

// Source loads notification candidates for one reporter, newest first.
type Source interface {
	Candidates(ctx context.Context, reporterEmail string, limit int) ([]mapper.NotificationCandidate, error)
}

// ReadStateStore persists which notification ids a reporter has read.
type ReadStateStore interface {
	ReadIDs(ctx context.Context, reporterEmail string) (map[string]bool, error)
	MarkRead(ctx context.Context, reporterEmail string, ids []string) error
}

// Feed is one reporter's session-scoped notification list.
type Feed struct {
	reporter string
	source   Source
	reads    ReadStateStore
	limit    int

	mu          sync.RWMutex
	items       []domain.Notification
	refreshedAt time.Time
}

// NewFeed builds an empty feed; call Refresh to load it. reads may be nil.
func NewFeed(reporterEmail string, source Source, reads ReadStateStore, limit int) *Feed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Feed{reporter: reporterEmail, source: source, reads: reads, limit: limit}
}

// Reporter returns the email the feed belongs to.
func (f *Feed) Reporter() string {
	return f.reporter
}

// Refresh reloads the feed, keeping read flags of notifications already seen.
func (f *Feed) Refresh(ctx context.Context) error {
	candidates, err := f.source.Candidates(ctx, f.reporter, f.limit)
	if err != nil {
		return err
	}
	fresh := Project(f.reporter, candidates, f.limit)

	var read map[string]bool
	if f.reads != nil {
		if read, err = f.reads.ReadIDs(ctx, f.reporter); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = ApplyRead(Reconcile(f.items, fresh), read)
	f.refreshedAt = time.Now()
	return nil
}

// Items returns a copy of the current notifications.
func (f *Feed) Items() []domain.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.Notification{}, f.items...)
}

// RefreshedAt is the time of the last successful refresh.
func (f *Feed) RefreshedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.refreshedAt
}

// UnreadCount counts unread notifications.
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return UnreadCount(f.items)
}

// MarkRead marks ids read, or every loaded notification when ids is empty.
func (f *Feed) MarkRead(ctx context.Context, ids []string) error {
	f.mu.Lock()
	if len(ids) == 0 {
		for _, n := range f.items {
			ids = append(ids, n.ID)
		}
	}
	read := make(map[string]bool, len(ids))
	for _, id := range ids {
		read[id] = true
	}
	f.items = ApplyRead(f.items, read)
	f.mu.Unlock()

	if f.reads == nil || len(ids) == 0 {
		return nil
	}
	return f.reads.MarkRead(ctx, f.reporter, ids)
}

// Refresher is anything a Poller can drive.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller refreshes a feed on a fixed interval until its context ends.
type Poller struct {
	Interval time.Duration
	Feed     Refresher
	Logger   *zap.Logger
	// Trigger, when set, requests an immediate refresh.
	Trigger <-chan struct{}
}

// Run refreshes once, then on every tick or trigger. Failures are logged and
// polling continues. Run returns when ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.refresh(ctx, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx, logger)
		case <-p.Trigger:
			p.refresh(ctx, logger)
		}
	}
}

func (p *Poller) refresh(ctx context.Context, logger *zap.Logger) {
	if ctx.Err() != nil {
		return
	}
	if err := p.Feed.Refresh(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("notification refresh failed", zap.Error(err))
	}
}
