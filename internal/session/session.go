// Package session keeps per-member UI state: which notifications a
// reporter has read and the member's saved ticket filters.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/triage-service/internal/listing"
)

const (
	readKeyPrefix   = "triage:notifications:read:"
	filterKeyPrefix = "triage:filters:"
)

// FilterStore persists saved filters keyed by member id.
type FilterStore interface {
	LoadFilter(ctx context.Context, userID string) (listing.SavedFilter, bool, error)
	SaveFilter(ctx context.Context, userID string, filter listing.SavedFilter) error
}

func readKey(email string) string {
	return readKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// RedisStore keeps session state in redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a redis backed store. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// ReadIDs returns the set of event ids the reporter has read.
func (s *RedisStore) ReadIDs(ctx context.Context, email string) (map[string]bool, error) {
	members, err := s.client.SMembers(ctx, readKey(email)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(members))
	for _, id := range members {
		out[id] = true
	}
	return out, nil
}

// MarkRead records ids as read.
func (s *RedisStore) MarkRead(ctx context.Context, email string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	key := readKey(email)
	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		members = append(members, id)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, members...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

// LoadFilter returns the member's saved filter, if any.
func (s *RedisStore) LoadFilter(ctx context.Context, userID string) (listing.SavedFilter, bool, error) {
	var filter listing.SavedFilter
	raw, err := s.client.Get(ctx, filterKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return filter, false, nil
	}
	if err != nil {
		return filter, false, err
	}
	if err := json.Unmarshal(raw, &filter); err != nil {
		return listing.SavedFilter{}, false, err
	}
	return filter, true, nil
}

// SaveFilter stores the member's filter.
func (s *RedisStore) SaveFilter(ctx context.Context, userID string, filter listing.SavedFilter) error {
	raw, err := json.Marshal(filter)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, filterKeyPrefix+userID, raw, s.ttl).Err()
}

// MemoryStore is the process-local fallback used when redis is unavailable.
type MemoryStore struct {
	mu      sync.RWMutex
	read    map[string]map[string]bool
	filters map[string]listing.SavedFilter
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		read:    make(map[string]map[string]bool),
		filters: make(map[string]listing.SavedFilter),
	}
}

func (s *MemoryStore) ReadIDs(ctx context.Context, email string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.read[readKey(email)]
	out := make(map[string]bool, len(src))
	for id := range src {
		out[id] = true
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, email string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := readKey(email)
	set, ok := s.read[key]
	if !ok {
		set = make(map[string]bool, len(ids))
		s.read[key] = set
	}
	for _, id := range ids {
		set[id] = true
	}
	return nil
}

func (s *MemoryStore) LoadFilter(ctx context.Context, userID string) (listing.SavedFilter, bool, error) {
	if err := ctx.Err(); err != nil {
		return listing.SavedFilter{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter, ok := s.filters[userID]
	return filter, ok, nil
}

func (s *MemoryStore) SaveFilter(ctx context.Context, userID string, filter listing.SavedFilter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[userID] = filter
	return nil
}
