package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisRetries = 8

// casScript writes ARGV[3] only if the key still holds ARGV[2] (ARGV[1]=1)
// or is still absent (ARGV[1]=0). ARGV[4] is the TTL in milliseconds.
var casScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if ARGV[1] == "1" then
  if cur ~= ARGV[2] then
    return 0
  end
elseif cur then
  return 0
end
local ttl = tonumber(ARGV[4])
if ttl > 0 then
  redis.call("SET", KEYS[1], ARGV[3], "PX", ttl)
else
  redis.call("SET", KEYS[1], ARGV[3])
end
return 1
`)

type cmdable interface {
	redis.Scripter
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisStore shares records between daemon instances. Update is optimistic:
// read, compute, then compare-and-set in a script, retrying on a lost race.
type RedisStore struct {
	client     cmdable
	prefix     string
	ttl        time.Duration
	maxRetries int
}

type RedisOptions struct {
	Address    string
	URL        string
	Password   string
	DB         int
	Prefix     string
	TTL        time.Duration
	MaxRetries int
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	clientOpts, err := redisClientOptions(opts)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(clientOpts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedisStore(raw, opts), nil
}

func newRedisStore(client cmdable, opts RedisOptions) *RedisStore {
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultRedisRetries
	}
	return &RedisStore{
		client:     client,
		prefix:     opts.Prefix,
		ttl:        opts.TTL,
		maxRetries: retries,
	}
}

func redisClientOptions(opts RedisOptions) (*redis.Options, error) {
	if opts.URL == "" && opts.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		if parsed.DB == 0 {
			parsed.DB = opts.DB
		}
		return parsed, nil
	}
	return &redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	}, nil
}

func (rs *RedisStore) Name() string { return "redis" }

func (rs *RedisStore) key(k string) string {
	if rs.prefix == "" {
		return k
	}
	return rs.prefix + ":" + k
}

func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := rs.client.Get(ctx, rs.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (rs *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := rs.client.Set(ctx, rs.key(key), value, rs.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (rs *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for attempt := 0; attempt < rs.maxRetries; attempt++ {
		cur, found, err := rs.Get(ctx, key)
		if err != nil {
			return err
		}
		next, write, err := fn(cur, found)
		if err != nil || !write {
			return err
		}
		swapped, err := rs.compareAndSet(ctx, key, cur, found, next)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}
	}
	return ErrConflict
}

func (rs *RedisStore) compareAndSet(ctx context.Context, key string, old []byte, found bool, next []byte) (bool, error) {
	expectExisting := "0"
	if found {
		expectExisting = "1"
	}
	res, err := casScript.Run(ctx, rs.client, []string{rs.key(key)},
		expectExisting, string(old), string(next), rs.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-set: %w", err)
	}
	return res == 1, nil
}
