package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/capstone-api/internal/config"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another instance")

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

const lockPrefix = "lock:"

type lockAPI interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd
}

// Client wraps the Redis connection. It is used for cross-instance locks.
type Client struct {
	rdb    lockAPI
	ping   func(ctx context.Context) error
	closer func() error
	logger *zap.Logger
}

// NewClient connects and pings Redis.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))

	return &Client{
		rdb:    rdb,
		ping:   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		closer: rdb.Close,
		logger: logger,
	}, nil
}

// Acquire takes name for ttl. The returned release func gives the lock back
// early and is safe to call after the ttl expired.
func (c *Client) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context), error) {
	key := lockPrefix + name
	token := uuid.NewString()

	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) {
		if err := c.rdb.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
			c.logger.Warn("release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// Ping reports whether Redis answers.
func (c *Client) Ping(ctx context.Context) error {
	if c.ping == nil {
		return nil
	}
	return c.ping(ctx)
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
