package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by every repository when a row does not exist.
var ErrNotFound = pgx.ErrNoRows

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles the table repositories sharing one connection or
// transaction.
type Repositories struct {
	Tickets     TicketRepository
	Teams       TeamRepository
	Comments    CommentRepository
	Reactions   ReactionRepository
	Events      EventRepository
	Attachments AttachmentRepository
}

// Store is the transactional boundary used by services. Writes that must be
// atomic run inside WithinTx; a returned error rolls every write back.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

// NewRepositories builds repositories over db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Tickets:     NewTicketRepository(db),
		Teams:       NewTeamRepository(db),
		Comments:    NewCommentRepository(db),
		Reactions:   NewReactionRepository(db),
		Events:      NewEventRepository(db),
		Attachments: NewAttachmentRepository(db),
	}
}

// PostgresStore implements Store over a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Repos() Repositories {
	return NewRepositories(s.pool)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
