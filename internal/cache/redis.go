package cache

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects to Redis when REDIS_URL is set. Snapshot
// persistence is optional, so a missing or unreachable Redis yields nil
// and a log line instead of a startup failure.
func InitRedis(ctx context.Context) *redis.Client {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		log.Println("REDIS_URL not set, snapshot persistence disabled")
		return nil
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Printf("failed to parse REDIS_URL, snapshot persistence disabled: %v", err)
			return nil
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		log.Printf("failed to connect to Redis, snapshot persistence disabled: %v", err)
		return nil
	}
	log.Println("Connected to Redis")
	return client
}
