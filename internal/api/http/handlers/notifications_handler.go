package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/notification"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// FeedSource hands out the live notification feed of a reporter.
type FeedSource interface {
	Feed(reporterEmail string) *notification.Feed
}

// NotificationsHandler exposes the caller's reporter feed and saved filters.
type NotificationsHandler struct {
	feeds   FeedSource
	filters *service.FilterService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(feeds FeedSource, filters *service.FilterService) *NotificationsHandler {
	return &NotificationsHandler{feeds: feeds, filters: filters}
}

// Feed GET /notifications.
func (h *NotificationsHandler) Feed(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if actor.Email == "" {
		return apperrors.NewValidationError("email claim required", map[string]any{"email": "required"})
	}
	feed := h.feeds.Feed(actor.Email)
	if feed.RefreshedAt().IsZero() || c.QueryBool("refresh") {
		if err := feed.Refresh(c.UserContext()); err != nil {
			return apperrors.NewStorageFailure("notification refresh failed", err)
		}
	}
	return c.JSON(fiber.Map{"data": dto.NotificationFeedResponse{
		Items:       notificationResponses(feed.Items()),
		UnreadCount: feed.UnreadCount(),
		RefreshedAt: feed.RefreshedAt(),
	}})
}

// MarkRead POST /notifications/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.MarkReadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	feed := h.feeds.Feed(actor.Email)
	if feed.RefreshedAt().IsZero() {
		if err := feed.Refresh(c.UserContext()); err != nil {
			return apperrors.NewStorageFailure("notification refresh failed", err)
		}
	}
	if err := feed.MarkRead(c.UserContext(), req.IDs); err != nil {
		return apperrors.NewStorageFailure("notification state not saved", err)
	}
	return c.JSON(fiber.Map{"data": dto.NotificationFeedResponse{
		Items:       notificationResponses(feed.Items()),
		UnreadCount: feed.UnreadCount(),
		RefreshedAt: feed.RefreshedAt(),
	}})
}

// GetFilters GET /me/filters.
func (h *NotificationsHandler) GetFilters(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	filter, err := h.filters.Load(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": filter})
}

// SaveFilters PUT /me/filters.
func (h *NotificationsHandler) SaveFilters(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.SavedFilterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	filter, err := h.filters.Save(c.UserContext(), actor, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": filter})
}
