package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/metrics"
	"github.com/astrathh/taskify-habitory/internal/tracker"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps the last reconciled item list per user. It is a cache:
// losing an entry only costs a reload.
type SnapshotStore interface {
	Get(ctx context.Context, userID string) ([]tracker.Item, bool, error)
	Put(ctx context.Context, userID string, items []tracker.Item) error
	Drop(ctx context.Context, userID string) error
}

// DropOnSignOut subscribes snapshots to hub so a user's list is discarded
// when they sign out.
func DropOnSignOut(hub *auth.Hub, snapshots SnapshotStore) (unsubscribe func()) {
	return hub.OnSessionChange(func(ev auth.Event) {
		if ev.Kind != auth.SignedOut || ev.UserID == "" {
			return
		}
		_ = snapshots.Drop(context.Background(), ev.UserID)
		metrics.SnapshotEvents.WithLabelValues("drop").Inc()
	})
}

type memoryEntry struct {
	items     []tracker.Item
	expiresAt time.Time
}

// MemorySnapshots 进程内快照，单实例部署使用
type MemorySnapshots struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySnapshots 构造 MemorySnapshots；ttl<=0 表示不过期
func NewMemorySnapshots(ttl time.Duration) *MemorySnapshots {
	return &MemorySnapshots{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (m *MemorySnapshots) Get(_ context.Context, userID string) ([]tracker.Item, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[userID]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, userID)
		m.mu.Unlock()
		return nil, false, nil
	}
	return cloneItems(entry.items), true, nil
}

func (m *MemorySnapshots) Put(_ context.Context, userID string, items []tracker.Item) error {
	entry := memoryEntry{items: cloneItems(items)}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[userID] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshots) Drop(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
	return nil
}

func cloneItems(items []tracker.Item) []tracker.Item {
	out := make([]tracker.Item, len(items))
	copy(out, items)
	return out
}

// RedisSnapshots 将快照以 JSON 存在 redis，key 为 snapshot:<user_id>
type RedisSnapshots struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshots parses redisURL, pings the server and returns the store.
func NewRedisSnapshots(ctx context.Context, redisURL string, ttl time.Duration) (*RedisSnapshots, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RedisSnapshots{client: client, ttl: ttl}, nil
}

func snapshotKey(userID string) string {
	return "snapshot:" + userID
}

func (r *RedisSnapshots) Get(ctx context.Context, userID string) ([]tracker.Item, bool, error) {
	data, err := r.client.Get(ctx, snapshotKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}

	var items []tracker.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return items, true, nil
}

func (r *RedisSnapshots) Put(ctx context.Context, userID string, items []tracker.Item) error {
	if items == nil {
		items = []tracker.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

func (r *RedisSnapshots) Drop(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		return fmt.Errorf("drop snapshot: %w", err)
	}
	return nil
}

// Close releases the redis connection pool.
func (r *RedisSnapshots) Close() error {
	return r.client.Close()
}
