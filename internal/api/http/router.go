package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/lifecycle"
)

// BodyLimit caps request bodies, attachment uploads included.
const BodyLimit = 20 * 1024 * 1024

// NewApp builds the fiber app. Immutable makes values read from the request
// (path params, headers, form fields) safe to keep after the handler
// returns, since services store them.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   name,
		BodyLimit: BodyLimit,
		Immutable: true,
	})
}

// FileRoute serves attachments kept on local disk.
type FileRoute struct {
	Prefix string
	Dir    string
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Attachments    *handlers.AttachmentsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	// Files is nil when attachments are served by the blob store itself.
	Files *FileRoute
}

// actorTransitions are exposed as POST /tickets/:id/<name>.
var actorTransitions = []lifecycle.Transition{
	lifecycle.Claim,
	lifecycle.Resolve,
	lifecycle.Snooze,
	lifecycle.Unsnooze,
	lifecycle.Reopen,
	lifecycle.Unassign,
	lifecycle.Escalate,
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)
	if cfg.Files != nil {
		app.Static(cfg.Files.Prefix, cfg.Files.Dir, fiber.Static{Browse: false})
	}

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/teams", cfg.Tickets.ListTeams)

	tickets := protected.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	for _, name := range actorTransitions {
		tickets.Post("/:id/"+string(name), cfg.Tickets.Transition(name))
	}
	tickets.Post("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Put("/:id/teams", cfg.Tickets.RedirectTicket)
	tickets.Put("/:id/priority", cfg.Tickets.ChangePriority)
	tickets.Get("/:id/events", cfg.Tickets.ListEvents)

	tickets.Get("/:id/comments", cfg.Comments.ListComments)
	tickets.Post("/:id/comments", cfg.Comments.AddComment)
	tickets.Get("/:id/attachments", cfg.Attachments.List)
	tickets.Post("/:id/attachments", cfg.Attachments.Upload)

	comments := protected.Group("/comments")
	comments.Delete("/:commentId", cfg.Comments.DeleteComment)
	comments.Post("/:commentId/reactions", cfg.Comments.ToggleReaction)

	protected.Get("/notifications", cfg.Notifications.Feed)
	protected.Post("/notifications/read", cfg.Notifications.MarkRead)

	me := protected.Group("/me")
	me.Get("/filters", cfg.Notifications.GetFilters)
	me.Put("/filters", cfg.Notifications.SaveFilters)
}
