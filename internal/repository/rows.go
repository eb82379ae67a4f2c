package repository

import "time"

// TicketRow is the storage shape of a ticket, before denormalized fields are
// resolved by the mapper.
type TicketRow struct {
	ID             string
	OrganizationID string
	// TeamID is the legacy single-team reference, kept in sync with the
	// first joined team.
	TeamID        *string
	Title         string
	Description   string
	Category      *string
	Priority      string
	Status        string
	ReporterEmail *string
	ReporterName  *string
	AssigneeID    *string
	AssigneeName  *string
	AssigneeEmail *string
	Tags          []string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// LegacyTeam is the row referenced by TeamID.
	LegacyTeam *TeamRow
	// Teams are the ticket_teams join rows in position order.
	Teams []TeamRow
}

// TeamRow is a stored team.
type TeamRow struct {
	ID             string
	OrganizationID string
	Name           string
	Icon           *string
	Color          *string
	CreatedAt      time.Time
}

// CommentRow is a stored comment with its reaction rows.
type CommentRow struct {
	ID        string
	TicketID  string
	UserID    *string
	UserName  *string
	UserEmail *string
	Body      string
	ParentID  *string
	CreatedAt time.Time
	Reactions []ReactionRow
}

// ReactionRow is a stored comment reaction, unique per (comment, user).
type ReactionRow struct {
	ID        string
	CommentID string
	UserID    string
	UserName  *string
	UserEmail *string
	Kind      string
	CreatedAt time.Time
}

// EventRow is a stored audit record.
type EventRow struct {
	ID         string
	TicketID   string
	ActorID    *string
	ActorName  *string
	ActorEmail *string
	EventType  string
	Payload    map[string]any
	CreatedAt  time.Time
}

// NotificationRow is an event joined with the ticket it belongs to.
type NotificationRow struct {
	EventRow
	TicketTitle   string
	ReporterEmail string
}

// AttachmentRow is stored attachment metadata.
type AttachmentRow struct {
	ID          string
	TicketID    string
	Filename    string
	ContentType string
	StoragePath string
	Checksum    string
	SizeBytes   int64
	CreatedAt   time.Time
}
