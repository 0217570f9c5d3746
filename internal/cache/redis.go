package cache

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

const redisKeyPrefix = "iparuby:ipa:"

// RedisConfig holds connection parameters for the Redis cache.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Redis stores phrases as plain string keys.
type Redis struct {
	client rueidis.Client
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Redis{client: client}, nil
}

func redisKey(phrase string) string {
	return redisKeyPrefix + phrase
}

func (c *Redis) Get(ctx context.Context, phrase string) (string, bool, error) {
	cmd := c.client.B().Get().Key(redisKey(phrase)).Build()
	v, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %q: %w", phrase, err)
	}
	return v, true, nil
}

func (c *Redis) Set(ctx context.Context, phrase, value string) error {
	cmd := c.client.B().Set().Key(redisKey(phrase)).Value(value).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set %q: %w", phrase, err)
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, phrase string) error {
	cmd := c.client.B().Del().Key(redisKey(phrase)).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis delete %q: %w", phrase, err)
	}
	return nil
}

func (c *Redis) Close() error {
	c.client.Close()
	return nil
}
