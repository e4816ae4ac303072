package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config describes the redis instance backing the download cache.
// An empty Address disables the cache.
type Config struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db" validate:"min=0"`
	Namespace  string `yaml:"namespace"`
	TTLSeconds int    `yaml:"ttlSeconds" validate:"min=0"`

	// FlushOnStart drops every cached download before the run.
	FlushOnStart bool `yaml:"flushOnStart"`
}

const defaultNamespace = "logomigrator"

type Cache struct {
	Redis     redis.UniversalClient
	Namespace string
	TTL       time.Duration
}

func NewCache(namespace string, ttl time.Duration, redisCl redis.UniversalClient) *Cache {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Cache{
		Namespace: namespace,
		TTL:       ttl,
		Redis:     redisCl,
	}
}

// NewRedisCache connects to the configured instance and verifies it with a ping.
func NewRedisCache(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.Address == "" {
		return nil, errors.New("cache address is empty")
	}
	cl := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, err
	}
	return NewCache(cfg.Namespace, time.Duration(cfg.TTLSeconds)*time.Second, cl), nil
}

func (c *Cache) key(key string) string {
	return c.Namespace + ":" + key
}

// Get returns the cached bytes. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.Redis.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Store saves the value with the cache TTL; a zero TTL keeps it forever.
func (c *Cache) Store(ctx context.Context, key string, value []byte) error {
	return c.Redis.Set(ctx, c.key(key), value, c.TTL).Err()
}

// Flush deletes all keys of the namespace.
func (c *Cache) Flush(ctx context.Context) error {
	keys, err := c.Redis.Keys(ctx, c.key("*")).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	pl := c.Redis.Pipeline()
	for _, key := range keys {
		pl.Del(ctx, key)
	}
	_, err = pl.Exec(ctx)
	return err
}

func (c *Cache) Close() error {
	return c.Redis.Close()
}
