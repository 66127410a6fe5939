package objstate

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "propsim:states"

// RedisLog appends snapshots to a Redis list.
type RedisLog struct {
	client *backend.Client
	key    string
	owned  bool
}

type RedisOption func(*RedisLog)

// WithRedisKey sets the list key snapshots are pushed to.
func WithRedisKey(key string) RedisOption {
	return func(l *RedisLog) {
		if key != "" {
			l.key = key
		}
	}
}

func NewRedisLog(addr string, opts ...RedisOption) *RedisLog {
	l := NewRedisLogFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
	l.owned = true
	return l
}

func NewRedisLogFromClient(client *backend.Client, opts ...RedisOption) *RedisLog {
	l := &RedisLog{client: client, key: DefaultRedisKey}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLog) Key() string {
	return l.key
}

func (l *RedisLog) AddState(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := l.client.RPush(ctx, l.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push snapshot: %w", err)
	}
	return nil
}

// Range returns snapshots between start and stop, inclusive, using Redis
// list indexing.
func (l *RedisLog) Range(ctx context.Context, start, stop int64) ([]Snapshot, error) {
	raw, err := l.client.LRange(ctx, l.key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	out := make([]Snapshot, 0, len(raw))
	for _, r := range raw {
		var snap Snapshot
		if err := json.Unmarshal([]byte(r), &snap); err != nil {
			return out, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, nil
}

// Close closes the client if the log created it.
func (l *RedisLog) Close() error {
	if !l.owned {
		return nil
	}
	return l.client.Close()
}
