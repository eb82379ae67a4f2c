package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/triage-service/internal/api/http"
	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/notification"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/persistence"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/repository/memstore"
	"github.com/spec-kit/triage-service/internal/service"
	"github.com/spec-kit/triage-service/internal/session"
	"github.com/spec-kit/triage-service/internal/storage"
	"github.com/spec-kit/triage-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pool)
	} else {
		mem := memstore.New()
		seeded, err := seedTeams(mem, cfg.App.DevTeams)
		if err != nil {
			logger.Fatal("invalid DEV_TEAMS", zap.Error(err))
		}
		logger.Warn("using in-memory store; data is lost on restart", zap.Int("teams", seeded))
		store = mem
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	var (
		reads       notification.ReadStateStore
		filters     session.FilterStore
		redisPinger handlers.Pinger
	)
	if rdb.Available {
		redisStore := session.NewRedisStore(rdb.Client, cfg.Redis.SessionTTL())
		reads, filters, redisPinger = redisStore, redisStore, rdb
	} else {
		logger.Warn("redis unavailable; session state kept in process")
		memSession := session.NewMemoryStore()
		reads, filters = memSession, memSession
	}

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init attachment storage", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Blobs:      blobs,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		Store:      store,
		Blobs:      blobs,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	filterService := service.NewFilterService(store, filters)

	feeds := worker.StartNotificationWorker(notificationService, reads, cfg.Notification, logger)
	defer feeds.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	if cfg.Auth.JWTSecret == "dev-secret" && cfg.App.Env != "development" {
		logger.Warn("AUTH_JWT_SECRET is the development default")
	}

	var files *httptransport.FileRoute
	if local, ok := blobs.(*storage.LocalStore); ok && local.RoutePrefix() != "" {
		files = &httptransport.FileRoute{Prefix: local.RoutePrefix(), Dir: local.Root()}
	}

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var pgPinger handlers.Pinger
	if pg.PoolHandle() != nil {
		pgPinger = pg
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pgPinger, redisPinger, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, commentService, attachmentService, filterService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
		Notifications:  handlers.NewNotificationsHandler(feeds, filterService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Files:          files,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// seedTeams loads "org:id:name" entries into the in-memory store.
func seedTeams(store *memstore.Store, entries []string) (int, error) {
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return 0, fmt.Errorf("team %q: want org:id:name", entry)
		}
		store.PutTeam(repository.TeamRow{
			ID:             parts[1],
			OrganizationID: parts[0],
			Name:           parts[2],
			CreatedAt:      time.Now().UTC(),
		})
	}
	return len(entries), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
