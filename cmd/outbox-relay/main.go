// outbox-relay publishes committed domain events from outbox_events to Pub/Sub.
// Run more than one for availability; a Redis lock keeps a single one publishing.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"

	"rice-mill/internal/config"
	"rice-mill/internal/core"
	"rice-mill/internal/db"
	"rice-mill/internal/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()

	pub, err := events.NewPubSubPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubTopic, cfg.PubSubCredentialsJSON)
	if err != nil {
		logger.Fatalf("pubsub: %v", err)
	}
	defer pub.Close()

	var locker *redislock.Client
	if rdb := config.ConnectRedis(ctx, cfg, logger, 5); rdb != nil {
		defer rdb.Close()
		locker = redislock.New(rdb)
	} else {
		logger.Warn("redis lock not ready; relay runs unlocked")
	}

	relay := events.NewRelay(core.NewOutboxService(pool), pub, locker, logger, events.RelayConfigFrom(cfg))
	logger.WithFields(logrus.Fields{
		"topic":         cfg.PubSubTopic,
		"poll_interval": cfg.OutboxPollInterval.String(),
		"max_attempts":  cfg.OutboxMaxAttempts,
	}).Info("outbox relay starting")

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("relay: %v", err)
	}
	logger.Info("outbox relay stopped")
}
