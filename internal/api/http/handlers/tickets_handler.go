package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/lifecycle"
	"github.com/spec-kit/triage-service/internal/listing"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	comments    *service.CommentService
	attachments *service.AttachmentService
	filters     *service.FilterService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService, attachments *service.AttachmentService, filters *service.FilterService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, comments: comments, attachments: attachments, filters: filters}
}

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok || actor.ID == "" {
		return domain.Actor{}, apperrors.NewUnauthorized("identity required")
	}
	return actor, nil
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Create(c.UserContext(), actor, lifecycle.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Priority:      req.Priority,
		TeamIDs:       req.TeamIDs,
		Tags:          req.Tags,
		ReporterEmail: req.ReporterEmail,
		ReporterName:  req.ReporterName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets. With saved=true the member's saved filter
// replaces the filter and sort query parameters.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var query service.TicketListQuery
	if parseBool(c.Query("saved")) {
		query, err = h.filters.Query(c.UserContext(), actor)
		if err == nil {
			query.Criteria.Location, err = parseLocation(c.Query("tz"))
		}
	} else {
		query, err = parseTicketQuery(c, actor)
	}
	if err != nil {
		return err
	}
	list, err := h.tickets.List(c.UserContext(), actor, query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets: ticketResponses(list.Tickets),
		Counts:  list.Counts,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	ticketID := c.Params("id")

	ticket, err := h.tickets.Get(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	roots, err := h.comments.Thread(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	history, err := h.tickets.Events(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	files, err := h.attachments.List(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		Ticket:      ticketResponse(ticket),
		Comments:    commentResponses(roots, actor.ID),
		Events:      eventResponses(history),
		Attachments: attachmentResponses(files),
	}})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Transition POST /tickets/:id/<transition>.
func (h *TicketsHandler) Transition(name lifecycle.Transition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		ticket, err := h.tickets.Transition(c.UserContext(), actor, c.Params("id"), name)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
	}
}

// RedirectTicket PUT /tickets/:id/teams.
func (h *TicketsHandler) RedirectTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.RedirectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Redirect(c.UserContext(), actor, c.Params("id"), req.TeamIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ChangePriority PUT /tickets/:id/priority.
func (h *TicketsHandler) ChangePriority(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.PriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.ChangePriority(c.UserContext(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Assign(c.UserContext(), actor, c.Params("id"), domain.Person{
		ID:    strings.TrimSpace(req.AssigneeID),
		Name:  strings.TrimSpace(req.AssigneeName),
		Email: strings.TrimSpace(req.AssigneeEmail),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListEvents GET /tickets/:id/events.
func (h *TicketsHandler) ListEvents(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	history, err := h.tickets.Events(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(history)})
}

// ListTeams GET /teams.
func (h *TicketsHandler) ListTeams(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	teams, err := h.tickets.Teams(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponses(teams)})
}

func parseTicketQuery(c *fiber.Ctx, actor domain.Actor) (service.TicketListQuery, error) {
	criteria := listing.Criteria{
		TeamID:       strings.TrimSpace(c.Query("team_id")),
		AssignedToMe: parseBool(c.Query("assigned_to_me")),
		RaisedByMe:   parseBool(c.Query("raised_by_me")),
		Search:       c.Query("search", c.Query("q")),
		Viewer:       listing.Viewer{ID: actor.ID, Email: actor.Email},
	}
	for _, part := range splitList(c.Query("status")) {
		status := domain.TicketStatus(part)
		if !status.Valid() {
			return service.TicketListQuery{}, apperrors.NewValidationError("invalid status", map[string]any{"status": part})
		}
		criteria.Statuses = append(criteria.Statuses, status)
	}
	for _, part := range splitList(c.Query("priority")) {
		priority := domain.TicketPriority(part)
		if !priority.Valid() {
			return service.TicketListQuery{}, apperrors.NewValidationError("invalid priority", map[string]any{"priority": part})
		}
		criteria.Priorities = append(criteria.Priorities, priority)
	}
	var err error
	if criteria.Location, err = parseLocation(c.Query("tz")); err != nil {
		return service.TicketListQuery{}, err
	}
	if criteria.CreatedFrom, err = parseDate(c.Query("created_from"), "created_from"); err != nil {
		return service.TicketListQuery{}, err
	}
	if criteria.CreatedTo, err = parseDate(c.Query("created_to"), "created_to"); err != nil {
		return service.TicketListQuery{}, err
	}

	query := service.TicketListQuery{
		Criteria:  criteria,
		SortKey:   listing.SortKey(c.Query("sort", string(listing.SortCreatedAt))),
		Direction: listing.Direction(strings.ToLower(c.Query("dir", string(listing.Desc)))),
	}
	if !query.SortKey.Valid() {
		return service.TicketListQuery{}, apperrors.NewValidationError("invalid sort key", map[string]any{"sort": string(query.SortKey)})
	}
	return query, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(val string) bool {
	parsed, err := strconv.ParseBool(val)
	return err == nil && parsed
}

// parseLocation returns nil for an empty zone, meaning UTC.
func parseLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid time zone", map[string]any{"tz": tz})
	}
	return loc, nil
}

// parseDate accepts a calendar date or an RFC3339 timestamp.
func parseDate(val, field string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(listing.DateLayout, val); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{field: val})
	}
	return &t, nil
}
