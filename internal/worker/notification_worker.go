package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/notification"
	"github.com/spec-kit/triage-service/internal/service"
)

// NotificationWorker keeps one polled feed per active reporter. Feeds that
// nobody reads for the idle timeout are stopped.
type NotificationWorker struct {
	source   notification.Source
	reads    notification.ReadStateStore
	interval time.Duration
	idle     time.Duration
	limit    int
	logger   *zap.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	feeds map[string]*feedEntry
}

type feedEntry struct {
	feed     *notification.Feed
	trigger  chan struct{}
	cancel   context.CancelFunc
	lastUsed time.Time
}

// NewNotificationWorker builds a worker. Feeds start lazily on first use.
func NewNotificationWorker(source notification.Source, reads notification.ReadStateStore, cfg config.NotificationConfig, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationWorker{
		source:   source,
		reads:    reads,
		interval: cfg.PollInterval(),
		idle:     cfg.IdleTimeout(),
		limit:    cfg.FeedLimit,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		feeds:    make(map[string]*feedEntry),
	}
}

// StartNotificationWorker builds the worker, subscribes it to committed
// events and starts the idle sweep.
func StartNotificationWorker(notificationService *service.NotificationService, reads notification.ReadStateStore, cfg config.NotificationConfig, logger *zap.Logger) *NotificationWorker {
	w := NewNotificationWorker(notificationService, reads, cfg, logger)
	notificationService.RegisterHandlers(w)
	w.wg.Add(1)
	go w.sweepLoop()
	return w
}

// Feed returns the reporter's feed, starting its poller if needed.
func (w *NotificationWorker) Feed(reporterEmail string) *notification.Feed {
	w.mu.Lock()
	defer w.mu.Unlock()

	if entry, ok := w.feeds[reporterEmail]; ok {
		entry.lastUsed = w.now()
		return entry.feed
	}

	ctx, cancel := context.WithCancel(w.ctx)
	entry := &feedEntry{
		feed:     notification.NewFeed(reporterEmail, w.source, w.reads, w.limit),
		trigger:  make(chan struct{}, 1),
		cancel:   cancel,
		lastUsed: w.now(),
	}
	w.feeds[reporterEmail] = entry

	poller := &notification.Poller{
		Interval: w.interval,
		Feed:     entry.feed,
		Logger:   w.logger.With(zap.String("reporter", reporterEmail)),
		Trigger:  entry.trigger,
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		poller.Run(ctx)
	}()
	return entry.feed
}

// Nudge requests an immediate refresh of a running feed. Reporters without
// a live feed are ignored; their feed loads fresh on next use.
func (w *NotificationWorker) Nudge(reporterEmail string) {
	w.mu.Lock()
	entry, ok := w.feeds[reporterEmail]
	w.mu.Unlock()
	if !ok {
		return
	}
	select {
	case entry.trigger <- struct{}{}:
	default:
	}
}

// Active reports how many feeds are being polled.
func (w *NotificationWorker) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.feeds)
}

// Stop cancels every poller and waits for them to exit.
func (w *NotificationWorker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.mu.Lock()
	w.feeds = make(map[string]*feedEntry)
	w.mu.Unlock()
}

func (w *NotificationWorker) sweepLoop() {
	defer w.wg.Done()
	every := w.idle / 4
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep stops feeds idle for longer than the idle timeout.
func (w *NotificationWorker) sweep() {
	cutoff := w.now().Add(-w.idle)
	w.mu.Lock()
	defer w.mu.Unlock()
	for email, entry := range w.feeds {
		if entry.lastUsed.Before(cutoff) {
			entry.cancel()
			delete(w.feeds, email)
			w.logger.Debug("notification feed stopped", zap.String("reporter", email))
		}
	}
}
