package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/listing"
)

// NotificationResponse is one reporter feed entry.
type NotificationResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	TicketTitle string    `json:"ticket_title"`
	Message     string    `json:"message"`
	ActorName   string    `json:"actor_name"`
	CreatedAt   time.Time `json:"created_at"`
	Unread      bool      `json:"unread"`
}

// NotificationFeedResponse is the reporter feed.
type NotificationFeedResponse struct {
	Items       []NotificationResponse `json:"items"`
	UnreadCount int                    `json:"unread_count"`
	RefreshedAt time.Time              `json:"refreshed_at"`
}

// MarkReadRequest lists notification ids to mark read. Empty marks all.
type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

// SavedFilterRequest is the saved filter body for PUT /me/filters.
type SavedFilterRequest = listing.SavedFilter
