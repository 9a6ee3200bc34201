package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the list key journal events are pushed to.
const DefaultRedisKey = "srctl:journal"

// RedisLogger journals events to a Redis list so multiple nodes can share
// one journal. Events are RPUSHed as JSON, oldest first.
type RedisLogger struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

// NewRedisLogger connects to the Redis instance at addr and verifies the
// connection.
func NewRedisLogger(addr, key string) (*RedisLogger, error) {
	if key == "" {
		key = DefaultRedisKey
	}
	l := &RedisLogger{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    key,
		ctx:    context.Background(),
	}
	if err := l.client.Ping(l.ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to journal redis at %s: %w", addr, err)
	}
	return l, nil
}

// Log appends an event to the journal list
func (l *RedisLogger) Log(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding journal event: %w", err)
	}
	return l.client.RPush(l.ctx, l.key, data).Err()
}

// Query reads the whole journal list and filters client-side. The journal
// is small (one entry per programming attempt), so no server-side indexing
// is kept.
func (l *RedisLogger) Query(filter Filter) ([]*Event, error) {
	entries, err := l.client.LRange(l.ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	var events []*Event
	for _, entry := range entries {
		var event Event
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			continue
		}
		if event.Matches(filter) {
			events = append(events, &event)
		}
	}
	return applyWindow(events, filter), nil
}

// Close releases the Redis connection
func (l *RedisLogger) Close() error {
	return l.client.Close()
}
