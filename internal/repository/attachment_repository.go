package repository

import (
	"context"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *AttachmentRow) error
	ListByTicket(ctx context.Context, ticketID string) ([]AttachmentRow, error)
}

type attachmentRepository struct {
	db DBTX
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *AttachmentRow) error {
	const query = `
        INSERT INTO attachments (id, ticket_id, filename, content_type, storage_path, checksum, size_bytes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		attachment.ID,
		attachment.TicketID,
		attachment.Filename,
		attachment.ContentType,
		attachment.StoragePath,
		attachment.Checksum,
		attachment.SizeBytes,
		attachment.CreatedAt,
	)
	return err
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]AttachmentRow, error) {
	const query = `
        SELECT id, ticket_id, filename, content_type, storage_path, checksum, size_bytes, created_at
        FROM attachments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AttachmentRow
	for rows.Next() {
		var attachment AttachmentRow
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.Filename,
			&attachment.ContentType,
			&attachment.StoragePath,
			&attachment.Checksum,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
