// Package events publishes committed outbox rows to Google Cloud Pub/Sub.
package events

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"rice-mill/internal/core"
)

// Publisher delivers one outbox event and returns the broker-assigned message id.
type Publisher interface {
	Publish(ctx context.Context, e core.OutboxEvent) (string, error)
}

// PubSubPublisher publishes to a single Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher connects to projectID. An empty credentialsJSON falls back to
// Application Default Credentials.
func NewPubSubPublisher(ctx context.Context, projectID, topic, credentialsJSON string) (*PubSubPublisher, error) {
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}
	if topic == "" {
		return nil, errors.New("PUBSUB_TOPIC is required")
	}

	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	t := client.Topic(topic)
	ok, err := t.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check topic %q: %w", topic, err)
	}
	if !ok {
		if t, err = client.CreateTopic(ctx, topic); err != nil {
			client.Close()
			return nil, fmt.Errorf("create topic %q: %w", topic, err)
		}
	}
	// Ordering keys are not used; the relay publishes one event at a time in id order.
	return &PubSubPublisher{client: client, topic: t}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, e core.OutboxEvent) (string, error) {
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: e.Payload,
		Attributes: map[string]string{
			"event_type":     e.EventType,
			"aggregate_type": e.AggregateType,
			"aggregate_id":   e.AggregateID,
			"outbox_id":      fmt.Sprint(e.ID),
		},
	})
	return result.Get(ctx)
}

// Close flushes pending publishes and releases the client.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
