package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ConnectRedis returns a connected client, or nil when REDIS_ADDRESS is unset.
// Connection attempts back off exponentially up to maxAttempts; after that the
// caller runs without Redis.
func ConnectRedis(ctx context.Context, cfg *Config, logger logrus.FieldLogger, maxAttempts int) *redis.Client {
	if cfg.RedisAddress == "" {
		logger.Info("REDIS_ADDRESS not set; report cache and relay lock disabled")
		return nil
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		err := rdb.Ping(ctx).Err()
		if err == nil {
			logger.WithFields(logrus.Fields{"addr": cfg.RedisAddress, "attempt": attempt}).Info("connected to redis")
			return rdb
		}
		_ = rdb.Close()

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{"addr": cfg.RedisAddress, "attempt": attempt}).
			Warnf("failed to connect redis: %v; retrying in %s", err, sleep)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleep):
		}
	}
	logger.WithField("addr", cfg.RedisAddress).Warn("giving up on redis; continuing without it")
	return nil
}
