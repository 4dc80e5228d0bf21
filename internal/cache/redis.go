// Package cache stores fetched detection batches in Redis so repeated
// dashboard queries skip the vendor API.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"visiongraph/pkg/models"
)

// Config configures Redis access for the detection cache.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Cache wraps a Redis client for detection-batch storage.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New constructs a Redis-backed detection cache.
func New(cfg Config) (*Cache, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "visiongraph"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis cache: %w", err)
	}

	return &Cache{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix), ttl: cfg.TTL}, nil
}

// Key derives a stable cache key from the query parameters.
func Key(region, filter string, top int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", region, filter, top)))
	return hex.EncodeToString(sum[:16])
}

// Get returns a cached detection batch, or (nil, false) on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]*models.Detection, bool, error) {
	raw, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var dets []*models.Detection
	if err := json.Unmarshal(raw, &dets); err != nil {
		return nil, false, fmt.Errorf("decode cached batch: %w", err)
	}
	return dets, true, nil
}

// Set stores a detection batch under the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, dets []*models.Detection) error {
	raw, err := json.Marshal(dets)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + ":detections:" + key
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
