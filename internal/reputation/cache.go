package reputation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// CacheConfig configures Redis access for reputation caching.
type CacheConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Cache wraps a Provider with a Redis TTL cache so repeated lookups for
// the same IP within the TTL do not hit the upstream service. Cache
// failures fall through to the wrapped provider.
type Cache struct {
	client *redis.Client
	next   Provider
	prefix string
	ttl    time.Duration
}

// NewCache constructs a Redis-backed reputation cache around next.
func NewCache(cfg CacheConfig, next Provider) (*Cache, error) {
	if next == nil {
		return nil, fmt.Errorf("reputation cache requires a wrapped provider")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "socsentinel:reputation"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis reputation cache: %w", err)
	}

	return &Cache{
		client: client,
		next:   next,
		prefix: strings.TrimSpace(cfg.KeyPrefix),
		ttl:    cfg.TTL,
	}, nil
}

// Score returns a cached reputation, consulting the wrapped provider on
// miss and storing the result with the configured TTL.
func (c *Cache) Score(ctx context.Context, ip string) (float64, error) {
	key := c.key(ip)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if v, perr := strconv.ParseFloat(cached, 64); perr == nil {
			return clampScore(v), nil
		}
	} else if err != redis.Nil && ctx.Err() != nil {
		return 0, ctx.Err()
	}

	score, err := c.next.Score(ctx, ip)
	if err != nil {
		return 0, err
	}

	// Best effort: a failed SET must not fail the lookup.
	_ = c.client.Set(ctx, key, strconv.FormatFloat(score, 'f', -1, 64), c.ttl).Err()

	return score, nil
}

// Close closes Redis resources.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) key(ip string) string {
	return c.prefix + ":ip:" + ip
}
