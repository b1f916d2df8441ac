package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores one client's keys in a single redis hash.
type RedisBackend struct {
	client *redis.Client
	key    string
}

func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	return &RedisBackend{client: client, key: key}
}

func (r *RedisBackend) Get(ctx context.Context, field string) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.HSet(ctx, r.key, k, v)
		}
		return nil
	})
	return err
}

func (r *RedisBackend) DeleteMany(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return r.client.HDel(ctx, r.key, fields...).Err()
}

// RedisProvider namespaces hashes as <Prefix><id>.
type RedisProvider struct {
	Client *redis.Client
	Prefix string
}

func NewRedisProvider(addr, password string, db int) (*RedisProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisProvider{Client: client, Prefix: "blogclient:session:"}, nil
}

func (p *RedisProvider) Backend(id string) Backend {
	return NewRedisBackend(p.Client, p.Prefix+id)
}
