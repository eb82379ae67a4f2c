package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body     string `json:"body"`
	ParentID string `json:"parent_id"`
}

// ReactionRequest toggles the caller's reaction.
type ReactionRequest struct {
	Reaction domain.ReactionKind `json:"reaction_type"`
}

// ReactionGroupResponse is every reaction of one kind.
type ReactionGroupResponse struct {
	Kind  domain.ReactionKind `json:"reaction_type"`
	Label string              `json:"label"`
	Count int                 `json:"count"`
	Names []string            `json:"names"`
	Mine  bool                `json:"mine"`
}

// ReactionRestResponse folds the kinds beyond the top ones.
type ReactionRestResponse struct {
	Count  int                     `json:"count"`
	Names  []string                `json:"names"`
	Groups []ReactionGroupResponse `json:"groups"`
}

// ReactionSummaryResponse is a comment's reaction aggregate.
type ReactionSummaryResponse struct {
	Total int                     `json:"total"`
	Top   []ReactionGroupResponse `json:"top"`
	Rest  ReactionRestResponse    `json:"rest"`
	Mine  domain.ReactionKind     `json:"mine,omitempty"`
}

// ReactionToggleResponse reports a toggle outcome.
type ReactionToggleResponse struct {
	CommentID string                  `json:"comment_id"`
	Action    string                  `json:"action"`
	Reactions ReactionSummaryResponse `json:"reactions"`
}

// CommentResponse is a thread node.
type CommentResponse struct {
	ID        string                  `json:"id"`
	TicketID  string                  `json:"ticket_id"`
	ParentID  string                  `json:"parent_id,omitempty"`
	Author    PersonResponse          `json:"author"`
	Body      string                  `json:"body"`
	CreatedAt time.Time               `json:"created_at"`
	Reactions ReactionSummaryResponse `json:"reactions"`
	Replies   []CommentResponse       `json:"replies"`
}
