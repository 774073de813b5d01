package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "sentivol:history:snapshot"

// RedisClient is the narrow slice of go-redis the store needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store persists window snapshots so a restart does not begin with an
// empty week. Both directions are best-effort; the window itself is the
// source of truth while the process runs.
type Store struct {
	client RedisClient
}

func NewStore(client RedisClient) *Store {
	return &Store{client: client}
}

// SaveSnapshot writes the snapshot with a TTL slightly past the
// retention horizon; stale state expires on its own if the service
// stays down.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.client.Set(ctx, snapshotKey, data, Retention+24*time.Hour).Err()
}

// Restore loads the persisted snapshot. A missing key is not an error;
// it just means a cold start.
func (s *Store) Restore(ctx context.Context) (*Snapshot, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
