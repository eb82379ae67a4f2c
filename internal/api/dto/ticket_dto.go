package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/listing"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Priority      string   `json:"priority"`
	TeamIDs       []string `json:"team_ids"`
	Tags          []string `json:"tags"`
	ReporterEmail string   `json:"reporter_email"`
	ReporterName  string   `json:"reporter_name"`
}

// RedirectRequest replaces a ticket's teams.
type RedirectRequest struct {
	TeamIDs []string `json:"team_ids"`
}

// PriorityRequest sets a ticket's priority.
type PriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignRequest names the new assignee.
type AssignRequest struct {
	AssigneeID    string `json:"assignee_id"`
	AssigneeName  string `json:"assignee_name"`
	AssigneeEmail string `json:"assignee_email"`
}

// PersonResponse is an identity snapshot with its resolved display name.
type PersonResponse struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
}

// TeamResponse is a normalized team.
type TeamResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Slug  string          `json:"slug"`
	Color string          `json:"color"`
	Icon  domain.TeamIcon `json:"icon"`
}

// TicketResponse is a ticket with its denormalized fields.
type TicketResponse struct {
	ID            string                `json:"id"`
	Number        int                   `json:"number,omitempty"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Category      string                `json:"category"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	ReporterEmail string                `json:"reporter_email"`
	ReporterName  string                `json:"reporter_name,omitempty"`
	AssigneeID    string                `json:"assignee_id,omitempty"`
	Assignee      *PersonResponse       `json:"assignee,omitempty"`
	TeamID        string                `json:"team_id,omitempty"`
	Team          *TeamResponse         `json:"team,omitempty"`
	TeamIDs       []string              `json:"team_ids"`
	Teams         []TeamResponse        `json:"teams"`
	Tags          []string              `json:"tags"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketListResponse is a filtered page with status tab counts.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
	Counts  listing.Counts   `json:"counts"`
}

// EventResponse is an audit entry with its activity phrase.
type EventResponse struct {
	ID          string           `json:"id"`
	TicketID    string           `json:"ticket_id"`
	Type        domain.EventType `json:"event_type"`
	Actor       PersonResponse   `json:"actor"`
	Payload     map[string]any   `json:"payload,omitempty"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Checksum    string    `json:"checksum,omitempty"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	Ticket      TicketResponse       `json:"ticket"`
	Comments    []CommentResponse    `json:"comments"`
	Events      []EventResponse      `json:"events"`
	Attachments []AttachmentResponse `json:"attachments"`
}
