package cache

import (
	"context"
	"fmt"
	"shib-price-bot/internal/types"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisStore shares cached tickers between bot replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, prefix: "bitso:ticker:"}
}

// Ensure RedisStore implements the Store interface
var _ Store = (*RedisStore)(nil)

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(book string) string {
	return fmt.Sprintf("%s%s", r.prefix, book)
}

func (r *RedisStore) Get(ctx context.Context, book string) (types.Ticker, bool, error) {
	data, err := r.client.Get(ctx, r.key(book)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return types.Ticker{}, false, nil
		}
		return types.Ticker{}, false, errors.Wrap(err, "redis get")
	}

	var t types.Ticker
	if err := json.Unmarshal(data, &t); err != nil {
		return types.Ticker{}, false, errors.Wrap(err, "failed to unmarshal ticker")
	}
	return t, true, nil
}

func (r *RedisStore) Set(ctx context.Context, book string, t types.Ticker, ttl time.Duration) error {
	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "failed to marshal ticker")
	}
	return errors.Wrap(r.client.Set(ctx, r.key(book), data, ttl).Err(), "redis set")
}
