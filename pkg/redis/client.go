package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HatimBenzahra/rework-sub001/pkg/config"
)

const pingTimeout = 3 * time.Second

// Client is the connection shared by the leaderboard cache and the feed
// rate limiter. A Client without a connection is valid: caches always miss
// and the limiter always allows.
type Client struct {
	rdb *redis.Client
}

// New connects when cfg.Enabled is set and checks the server answers a
// PING before the engine starts relying on it.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return Disabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", rdb.Options().Addr, err)
	}

	return &Client{rdb: rdb}, nil
}

// Disabled returns a Client with no connection.
func Disabled() *Client {
	return &Client{}
}

func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether c holds a live connection.
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Redis exposes the connection to the cache and limiter scripts. It is nil
// when c is disabled.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
