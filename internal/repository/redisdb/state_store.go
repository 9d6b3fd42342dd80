// Package redisdb stores alert notification state in Redis hashes.
package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mamadbah2/dairy/internal/service/notifications"
)

const (
	defaultPrefix = "dairy:alert_state:"
	defaultTTL    = 30 * 24 * time.Hour

	fieldRead        = "read"
	fieldReadAt      = "read_at"
	fieldSnoozeUntil = "snooze_until"
)

var _ notifications.StateStore = (*StateStore)(nil)

// StateStore keeps one hash per alert id. Keys expire after the TTL because
// alert ids are scoped to a single evaluation day.
type StateStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewStateStore wraps a Redis client. Empty prefix or zero ttl select defaults.
func NewStateStore(client redis.Cmdable, prefix string, ttl time.Duration) *StateStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &StateStore{client: client, prefix: prefix, ttl: ttl}
}

// Get implements notifications.StateStore.
func (s *StateStore) Get(ctx context.Context, id string) (notifications.State, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return notifications.State{}, false, fmt.Errorf("hgetall alert state: %w", err)
	}
	if len(fields) == 0 {
		return notifications.State{}, false, nil
	}

	state := notifications.State{Read: fields[fieldRead] == "1"}
	if state.ReadAt, err = parseTime(fields[fieldReadAt]); err != nil {
		return notifications.State{}, false, fmt.Errorf("parse read_at for %s: %w", id, err)
	}
	if state.SnoozeUntil, err = parseTime(fields[fieldSnoozeUntil]); err != nil {
		return notifications.State{}, false, fmt.Errorf("parse snooze_until for %s: %w", id, err)
	}
	return state, true, nil
}

// Put implements notifications.StateStore.
func (s *StateStore) Put(ctx context.Context, id string, state notifications.State) error {
	key := s.key(id)
	read := "0"
	if state.Read {
		read = "1"
	}
	if err := s.client.HSet(ctx, key,
		fieldRead, read,
		fieldReadAt, formatTime(state.ReadAt),
		fieldSnoozeUntil, formatTime(state.SnoozeUntil),
	).Err(); err != nil {
		return fmt.Errorf("hset alert state: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("expire alert state: %w", err)
	}
	return nil
}

func (s *StateStore) key(id string) string {
	return s.prefix + id
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
