package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/ilng/roster/config"
)

const (
	pubsubTopicPrefix = "roster-"
	// Subscriptions left behind by a crashed subscriber expire after a day
	// of inactivity.
	pubsubSubscriptionTTL = 24 * time.Hour
)

// PubSubClient maps each channel to the topic "roster-<channel>". Every
// Subscribe call gets its own subscription so subscribers see every
// message.
type PubSubClient struct {
	client *pubsub.Client
	suffix string

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubClient connects to cfg.ProjectID.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}
	return &PubSubClient{
		client: client,
		suffix: suffix,
		topics: make(map[string]*pubsub.Topic),
	}, nil
}

// TopicName returns the Pub/Sub topic used for channel.
func TopicName(channel string) string {
	return pubsubTopicPrefix + channel
}

// Publish sends data and waits for the server assigned id.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	id, err := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", topic.ID(), err)
	}
	return id, nil
}

// Subscribe creates a private subscription, receives until ctx is done
// and then deletes it.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}

	name := topic.ID() + p.suffix + "-" + uuid.NewString()[:8]
	sub, err := p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:            topic,
		ExpirationPolicy: pubsubSubscriptionTTL,
	})
	if err != nil {
		return fmt.Errorf("create subscription %s: %w", name, err)
	}
	defer func() {
		cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := sub.Delete(cleanup); err != nil {
			log.WithError(err).WithField("subscription", name).Warn("Failed to delete Pub/Sub subscription")
		}
	}()

	err = sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		msg := Message{ID: m.ID, Data: m.Data, Attributes: m.Attributes}
		if err := handler(ctx, msg); err != nil {
			log.WithError(err).WithField("message_id", m.ID).Warn("Pub/Sub handler failed")
			m.Nack()
			return
		}
		m.Ack()
	})
	if err == nil {
		err = ctx.Err()
	}
	return err
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.topics = nil
	p.mu.Unlock()
	return p.client.Close()
}

// topic returns the cached handle for channel, creating the topic on
// first use.
func (p *PubSubClient) topic(ctx context.Context, channel string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[channel]; ok {
		return t, nil
	}
	t := p.client.Topic(TopicName(channel))
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", t.ID(), err)
	}
	if !exists {
		if t, err = p.client.CreateTopic(ctx, TopicName(channel)); err != nil {
			return nil, fmt.Errorf("create topic: %w", err)
		}
	}
	if p.topics == nil {
		p.topics = make(map[string]*pubsub.Topic)
	}
	p.topics[channel] = t
	return t, nil
}
