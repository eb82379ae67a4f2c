package domain

import "time"

// ReactionKind enumerates the reactions a member can leave on a comment.
type ReactionKind string

const (
	ReactionSmile      ReactionKind = "smile"
	ReactionLaugh      ReactionKind = "laugh"
	ReactionHeart      ReactionKind = "heart"
	ReactionThumbsUp   ReactionKind = "thumbs-up"
	ReactionThumbsDown ReactionKind = "thumbs-down"
	ReactionFrown      ReactionKind = "frown"
)

// ReactionKinds lists reactions in picker order.
var ReactionKinds = []ReactionKind{
	ReactionSmile,
	ReactionLaugh,
	ReactionHeart,
	ReactionThumbsUp,
	ReactionThumbsDown,
	ReactionFrown,
}

var reactionLabels = map[ReactionKind]string{
	ReactionSmile:      "Smile",
	ReactionLaugh:      "Laugh",
	ReactionHeart:      "Heart",
	ReactionThumbsUp:   "Thumbs up",
	ReactionThumbsDown: "Thumbs down",
	ReactionFrown:      "Frown",
}

// Valid reports whether k is a known reaction.
func (k ReactionKind) Valid() bool {
	_, ok := reactionLabels[k]
	return ok
}

// Label is the human readable name, also used as the aggregation tie-break.
func (k ReactionKind) Label() string {
	if label, ok := reactionLabels[k]; ok {
		return label
	}
	return string(k)
}

// Comment is a threaded remark on a ticket.
type Comment struct {
	ID       string
	TicketID string
	Author   *Person
	Body     string
	// ParentID is empty for top-level comments.
	ParentID  string
	CreatedAt time.Time
	// Replies and Reactions are derived on read.
	Replies   []*Comment
	Reactions []Reaction
}

// AuthorID returns the author's id, or "" when the author is unknown.
func (c *Comment) AuthorID() string {
	if c.Author == nil {
		return ""
	}
	return c.Author.ID
}

// Reaction is one member's reaction on one comment.
type Reaction struct {
	ID        string
	CommentID string
	UserID    string
	UserName  string
	UserEmail string
	Kind      ReactionKind
	CreatedAt time.Time
}

// Attachment is file metadata stored next to a ticket.
type Attachment struct {
	ID          string
	TicketID    string
	Filename    string
	ContentType string
	StoragePath string
	Checksum    string
	SizeBytes   int64
	URL         string
	CreatedAt   time.Time
}

// Notification is a reporter-facing projection of an event.
type Notification struct {
	ID          string
	TicketID    string
	TicketTitle string
	Message     string
	ActorName   string
	CreatedAt   time.Time
	Unread      bool
}
