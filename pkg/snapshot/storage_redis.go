package snapshot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// redisKeyPrefix namespaces snapshot keys so the database can be shared.
const redisKeyPrefix = "SNAPSHOT:"

// RedisStorage stores snapshots as plain string values in Redis.
type RedisStorage struct {
	client *redis.Client
}

var _ Storage = (*RedisStorage)(nil)

// RedisStorageOptions configures the Redis connection.
type RedisStorageOptions struct {
	Address  string
	Password string
	DB       int
}

func (opt RedisStorageOptions) validate() error {
	if opt.Address == "" {
		return eris.New("redis address cannot be empty")
	}
	if opt.DB < 0 {
		return eris.New("redis db cannot be negative")
	}
	return nil
}

// NewRedisStorage connects to Redis and checks the connection with a PING.
func NewRedisStorage(ctx context.Context, opts RedisStorageOptions) (*RedisStorage, error) {
	if err := opts.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid options passed")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrapf(err, "failed to connect to redis at %s", opts.Address)
	}

	return &RedisStorage{client: client}, nil
}

func (r *RedisStorage) Store(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, 0).Err(); err != nil {
		return eris.Wrapf(err, "failed to store snapshot %s", key)
	}
	return nil
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	bz, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, eris.Wrapf(ErrSnapshotNotFound, "key %s", key)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load snapshot %s", key)
	}
	return bz, nil
}

func (r *RedisStorage) Close() error {
	return eris.Wrap(r.client.Close(), "failed to close redis client")
}
