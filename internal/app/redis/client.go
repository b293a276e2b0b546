package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	appcfg "userapi/internal/app/config"
	"userapi/internal/app/ds"
)

const userPrefix = "user:"

// Client caches single-user lookups by id.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, cfg appcfg.Config) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: time.Duration(cfg.Redis.DialTimeout) * time.Second,
		ReadTimeout: time.Duration(cfg.Redis.ReadTimeout) * time.Second,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := time.Duration(cfg.Redis.TTL) * time.Second
	if ttl <= 0 {
		ttl = appcfg.DefaultCacheTTL * time.Second
	}
	return &Client{client: client, ttl: ttl}, nil
}

func userKey(id int64) string { return userPrefix + strconv.FormatInt(id, 10) }

// GetUser reports found=false on a cache miss.
func (c *Client) GetUser(ctx context.Context, id int64) (ds.User, bool, error) {
	raw, err := c.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ds.User{}, false, nil
		}
		return ds.User{}, false, err
	}
	var u ds.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return ds.User{}, false, fmt.Errorf("invalid cached user %d: %w", id, err)
	}
	return u, true, nil
}

func (c *Client) SaveUser(ctx context.Context, u ds.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userKey(u.ID), raw, c.ttl).Err()
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.client.Del(ctx, userKey(id)).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}
