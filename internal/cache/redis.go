package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis"

	"github.com/rohitbhanushali/uber-clone-source-code/pkg/config"
)

const keyPrefix = "uberclone:"

// Redis is a Cache backed by a Redis server.
type Redis struct {
	cli *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(cli *redis.Client) *Redis {
	return &Redis{cli: cli}
}

// Dial connects to cfg.Addr, which is either a redis:// URL or host:port,
// and pings the server.
func Dial(cfg config.RedisConfig) (*Redis, error) {
	opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping().Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(cli), nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.cli.WithContext(ctx).Get(keyPrefix + key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.cli.WithContext(ctx).Set(keyPrefix+key, value, ttl).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.cli.Close()
}
