// Package storage holds attachment blobs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/spec-kit/triage-service/internal/config"
)

// ErrInvalidPath rejects keys that would escape the store root.
var ErrInvalidPath = errors.New("invalid storage path")

// BlobStore writes and removes attachment content.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New picks the blob store named by cfg.Driver.
func New(cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	escaped := make([]string, 0)
	for _, part := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(escaped, "/")
}

// S3Store uploads blobs to an S3 compatible bucket.
type S3Store struct {
	bucket   string
	baseURL  string
	client   *s3.S3
	uploader *s3manager.Uploader
}

// NewS3Store opens an AWS session for the configured region. A custom
// endpoint switches to path style addressing for S3 compatible servers.
func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.AWSRegion)
	if cfg.AWSEndpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.AWSEndpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		if cfg.AWSEndpoint != "" {
			baseURL = strings.TrimRight(cfg.AWSEndpoint, "/") + "/" + cfg.Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.AWSRegion)
		}
	}

	return &S3Store{
		bucket:   cfg.Bucket,
		baseURL:  baseURL,
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, _ int64) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Store) URL(key string) string {
	return joinURL(s.baseURL, key)
}

// LocalStore writes blobs below a directory on disk.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if baseURL == "" {
		baseURL = "/files"
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

func (s *LocalStore) Put(ctx context.Context, key, _ string, body io.Reader, _ int64) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return err
	}
	return f.Close()
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}

// Root is the directory blobs are written under.
func (s *LocalStore) Root() string {
	return s.root
}

// RoutePrefix is the path this service must serve Root under for URL to
// resolve. It is empty when the base URL names another host.
func (s *LocalStore) RoutePrefix() string {
	u, err := url.Parse(s.baseURL)
	if err != nil || u.Host != "" {
		return ""
	}
	prefix := "/" + strings.Trim(u.Path, "/")
	if prefix == "/" {
		return ""
	}
	return prefix
}

// MemoryStore keeps blobs in a map. Used by tests and local demos.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// FailPut makes every Put fail with this error when set.
	FailPut error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, key, _ string, body io.Reader, _ int64) error {
	if s.FailPut != nil {
		return s.FailPut
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) URL(key string) string {
	return joinURL("memory://attachments", key)
}

// Get returns a stored blob.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	return data, ok
}

// Len reports how many blobs are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
