package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// CommentRepository manages ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *CommentRow) error
	GetByID(ctx context.Context, id string) (*CommentRow, error)
	Delete(ctx context.Context, id string) error
	// ListByTicket returns comments oldest first, each with its reactions.
	ListByTicket(ctx context.Context, ticketID string) ([]CommentRow, error)
}

type commentRepository struct {
	db DBTX
}

// NewCommentRepository builds repository.
func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *CommentRow) error {
	const query = `
        INSERT INTO comments (id, ticket_id, user_id, user_name, user_email, body, parent_comment_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		comment.ID,
		comment.TicketID,
		comment.UserID,
		comment.UserName,
		comment.UserEmail,
		comment.Body,
		comment.ParentID,
		comment.CreatedAt,
	)
	return err
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*CommentRow, error) {
	const query = `
        SELECT id, ticket_id, user_id, user_name, user_email, body, parent_comment_id, created_at
        FROM comments WHERE id=$1`
	var comment CommentRow
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.UserID,
		&comment.UserName,
		&comment.UserEmail,
		&comment.Body,
		&comment.ParentID,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes only the comment. Replies keep their dangling parent id.
func (r *commentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]CommentRow, error) {
	const query = `
        SELECT id, ticket_id, user_id, user_name, user_email, body, parent_comment_id, created_at
        FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}

	var result []CommentRow
	index := map[string]int{}
	for rows.Next() {
		var comment CommentRow
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.UserID,
			&comment.UserName,
			&comment.UserEmail,
			&comment.Body,
			&comment.ParentID,
			&comment.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, err
		}
		index[comment.ID] = len(result)
		result = append(result, comment)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	reactions, err := r.db.Query(ctx, `
        SELECT r.id, r.comment_id, r.user_id, r.user_name, r.user_email, r.reaction_type, r.created_at
        FROM comment_reactions r
        JOIN comments c ON c.id = r.comment_id
        WHERE c.ticket_id=$1 ORDER BY r.created_at ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer reactions.Close()
	for reactions.Next() {
		reaction, err := scanReaction(reactions)
		if err != nil {
			return nil, err
		}
		if i, ok := index[reaction.CommentID]; ok {
			result[i].Reactions = append(result[i].Reactions, reaction)
		}
	}
	return result, reactions.Err()
}
