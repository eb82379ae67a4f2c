package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// ReactionRepository stores comment reactions keyed by (comment, user).
type ReactionRepository interface {
	// Upsert inserts the reaction or replaces the user's existing one.
	Upsert(ctx context.Context, reaction *ReactionRow) error
	Delete(ctx context.Context, commentID, userID string) error
}

type reactionRepository struct {
	db DBTX
}

// NewReactionRepository builds repository.
func NewReactionRepository(db DBTX) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Upsert(ctx context.Context, reaction *ReactionRow) error {
	const query = `
        INSERT INTO comment_reactions (id, comment_id, user_id, user_name, user_email, reaction_type, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (comment_id, user_id) DO UPDATE
            SET reaction_type=EXCLUDED.reaction_type, user_name=EXCLUDED.user_name,
                user_email=EXCLUDED.user_email, created_at=EXCLUDED.created_at
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		reaction.ID,
		reaction.CommentID,
		reaction.UserID,
		reaction.UserName,
		reaction.UserEmail,
		reaction.Kind,
		reaction.CreatedAt,
	).Scan(&reaction.ID)
}

func (r *reactionRepository) Delete(ctx context.Context, commentID, userID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM comment_reactions WHERE comment_id=$1 AND user_id=$2`, commentID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanReaction(row pgx.Row) (ReactionRow, error) {
	var reaction ReactionRow
	err := row.Scan(
		&reaction.ID,
		&reaction.CommentID,
		&reaction.UserID,
		&reaction.UserName,
		&reaction.UserEmail,
		&reaction.Kind,
		&reaction.CreatedAt,
	)
	return reaction, err
}
