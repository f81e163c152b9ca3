package events

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"

	"rice-mill/internal/config"
	"rice-mill/internal/core"
)

const relayLockKey = "lock:rice-mill:outbox-relay"

// RelayConfig controls polling and retry behaviour.
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

// RelayConfigFrom copies the outbox settings out of the process config.
func RelayConfigFrom(cfg *config.Config) RelayConfig {
	return RelayConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
		BaseBackoff:  cfg.OutboxBaseBackoff,
		MaxBackoff:   cfg.OutboxMaxBackoff,
	}
}

// Relay moves committed outbox events to a Publisher.
type Relay struct {
	outbox core.OutboxService
	pub    Publisher
	locker *redislock.Client
	logger logrus.FieldLogger
	cfg    RelayConfig
	now    func() time.Time
}

// NewRelay builds a relay. locker may be nil, in which case the relay runs unlocked.
func NewRelay(outbox core.OutboxService, pub Publisher, locker *redislock.Client, logger logrus.FieldLogger, cfg RelayConfig) *Relay {
	return &Relay{outbox: outbox, pub: pub, locker: locker, logger: logger, cfg: cfg, now: time.Now}
}

// Backoff returns the delay before retry number attempt (1-based): base·2^(attempt-1), capped at ceiling.
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			config.LogError(r.logger, "events", "Relay.Run", "relay pass failed", nil, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce publishes one batch of due events and returns how many were published.
// When another relay holds the lock the pass is skipped.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	if r.locker != nil {
		lock, err := r.locker.Obtain(ctx, relayLockKey, r.lockTTL(), nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			r.logger.Debug("outbox relay lock held elsewhere; skipping pass")
			return 0, nil
		}
		if err != nil {
			r.logger.WithError(err).Warn("could not obtain redis lock; proceeding without redis lock")
		} else {
			defer lock.Release(context.WithoutCancel(ctx))
		}
	}

	events, err := r.outbox.Pending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, e := range events {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		msgID, pubErr := r.pub.Publish(ctx, e)
		if pubErr == nil {
			if err := r.outbox.MarkPublished(ctx, e.ID); err != nil {
				return published, err
			}
			published++
			r.logger.WithFields(logrus.Fields{
				"outbox_id":  e.ID,
				"event_type": e.EventType,
				"message_id": msgID,
			}).Debug("outbox event published")
			continue
		}

		attempts := e.Attempts + 1
		dead := attempts >= r.cfg.MaxAttempts
		next := r.now().Add(Backoff(attempts, r.cfg.BaseBackoff, r.cfg.MaxBackoff))
		if err := r.outbox.MarkFailed(ctx, e.ID, attempts, next, dead, pubErr.Error()); err != nil {
			return published, err
		}
		fields := logrus.Fields{"outbox_id": e.ID, "event_type": e.EventType, "attempts": attempts}
		if dead {
			r.logger.WithFields(fields).WithError(pubErr).Error("outbox event marked dead")
		} else {
			r.logger.WithFields(fields).WithError(pubErr).Warnf("publish failed; retrying at %s", next.Format(time.RFC3339))
		}
		// Later events wait so subscribers see them in commit order.
		break
	}
	return published, nil
}

func (r *Relay) lockTTL() time.Duration {
	if ttl := 2 * r.cfg.PollInterval; ttl > 30*time.Second {
		return ttl
	}
	return 30 * time.Second
}
