package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/lifecycle"
	"github.com/spec-kit/triage-service/internal/mapper"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/storage"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// DefaultContentType is used when an upload does not declare one.
const DefaultContentType = "application/octet-stream"

// AttachmentService stores ticket files.
type AttachmentService struct {
	store      repository.Store
	blobs      storage.BlobStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// AttachmentDependencies bundles collaborators for the attachment service.
type AttachmentDependencies struct {
	Store      repository.Store
	Blobs      storage.BlobStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// UploadInput describes an incoming file.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NewAttachmentService constructs the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		store:      deps.Store,
		blobs:      deps.Blobs,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clockOrDefault(deps.Clock),
	}
}

// StoragePath is the blob key for a file uploaded at unixMilli.
func StoragePath(ticketID string, unixMilli int64, filename string) string {
	return fmt.Sprintf("%s/%d-%s", ticketID, unixMilli, filename)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Upload writes the blob first, then its metadata and attachment_added event
// in one transaction. If the transaction fails the blob is removed again.
func (s *AttachmentService) Upload(ctx context.Context, actor domain.Actor, ticketID string, in UploadInput) (*domain.Attachment, error) {
	filename := path.Base(strings.ReplaceAll(strings.TrimSpace(in.Filename), "\\", "/"))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apperrors.NewValidationError("filename is required", map[string]any{"filename": "required"})
	}
	if in.Body == nil {
		return nil, apperrors.NewValidationError("file is required", map[string]any{"file": "required"})
	}
	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" {
		contentType = DefaultContentType
	}

	ticket, err := loadTicket(ctx, s.store.Repos(), actor, ticketID, false)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := StoragePath(ticketID, now.UnixMilli(), filename)
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	counter := &countingReader{r: io.TeeReader(in.Body, hasher)}
	if err := s.blobs.Put(ctx, key, contentType, counter, in.Size); err != nil {
		return nil, apperrors.NewStorageFailure("attachment upload failed", err)
	}

	attachment := domain.Attachment{
		ID:          uuid.NewString(),
		TicketID:    ticketID,
		Filename:    filename,
		ContentType: contentType,
		StoragePath: key,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
		SizeBytes:   counter.n,
		URL:         s.blobs.URL(key),
		CreatedAt:   now,
	}
	var event domain.Event
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if _, err := loadTicket(ctx, repos, actor, ticketID, false); err != nil {
			return err
		}
		row := mapper.AttachmentToRow(attachment)
		if err := repos.Attachments.Create(ctx, &row); err != nil {
			return storeError(err, "attachment", attachment.ID)
		}
		event = newEvent(ticketID, actor.Person(), lifecycle.Draft{
			Type: domain.EventAttachmentAdded,
			Payload: domain.AttachmentAdded{
				AttachmentID: attachment.ID,
				Filename:     filename,
				ContentType:  contentType,
			},
		}, now)
		return appendEvent(ctx, repos, event)
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("orphaned attachment blob",
				zap.String("ticket_id", ticketID),
				zap.String("path", key),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	s.logger.Debug("attachment added",
		zap.String("ticket_id", ticketID),
		zap.String("attachment_id", attachment.ID),
		zap.Int64("size_bytes", attachment.SizeBytes),
	)
	publish(ctx, s.dispatcher, event, ticket)
	return &attachment, nil
}

// List returns the ticket's attachments with resolved URLs.
func (s *AttachmentService) List(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Attachment, error) {
	repos := s.store.Repos()
	if _, err := loadTicket(ctx, repos, actor, ticketID, false); err != nil {
		return nil, err
	}
	rows, err := repos.Attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "attachment", ticketID)
	}
	out := make([]domain.Attachment, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapper.Attachment(row, s.blobs.URL(row.StoragePath)))
	}
	return out, nil
}
