package providers

import (
	"context"
	"time"

	"quotad/internal/storage"
	"quotad/internal/structures"
)

const redisConnectTimeout = 5 * time.Second

func NewStoreProvider(conf *structures.Config, logger Logger) (storage.Store, error) {
	switch conf.Storage.Driver {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
		defer cancel()
		store, err := storage.NewRedisStore(ctx, storage.RedisOptions{
			Address:    conf.Redis.Address,
			URL:        conf.Redis.URL,
			Password:   conf.Redis.Password,
			DB:         conf.Redis.DB,
			Prefix:     conf.Redis.Prefix,
			TTL:        conf.Storage.RecordTTL,
			MaxRetries: conf.Redis.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		logger.Infof(TypeApp, "Storage: redis, prefix %q, record TTL %s", conf.Redis.Prefix, conf.Storage.RecordTTL)
		return store, nil
	case "freecache":
		logger.Infof(TypeApp, "Storage: freecache %dMB, record TTL %s", conf.Cache.Size, conf.Storage.RecordTTL)
		return storage.NewFreecacheStore(conf.Cache.Size, conf.Storage.RecordTTL), nil
	default:
		logger.Infof(TypeApp, "Storage: memory, record TTL %s", conf.Storage.RecordTTL)
		return storage.NewMemoryStore(storage.WithTTL(conf.Storage.RecordTTL)), nil
	}
}
