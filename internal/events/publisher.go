// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
)

// ErrClosed is returned when publishing on a closed Publisher.
var ErrClosed = errors.New("events: publisher is closed")

// Config selects and tunes the transport.
type Config struct {
	// NATSURL enables the NATS transport when non-empty.
	NATSURL       string
	MaxReconnects int
	ReconnectWait time.Duration

	// BufferSize is the GoChannel output buffer per subscriber.
	BufferSize int64
}

// DefaultConfig returns an in-process configuration.
func DefaultConfig() Config {
	return Config{
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		BufferSize:    64,
	}
}

// Publisher publishes JSON payloads to topics. Safe for concurrent use.
type Publisher struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	transport  string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a Publisher for cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger().With("component", "watermill"))

	if cfg.NATSURL == "" {
		bufferSize := cfg.BufferSize
		if bufferSize <= 0 {
			bufferSize = DefaultConfig().BufferSize
		}
		pubSub := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: bufferSize,
		}, logger)
		return &Publisher{publisher: pubSub, subscriber: pubSub, transport: "gochannel"}, nil
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	// Core NATS only; no streams are provisioned.
	jsConfig := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jsConfig,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		SubscribersCount: 1,
		CloseTimeout:     5 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jsConfig,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Publisher{publisher: pub, subscriber: sub, transport: "nats"}, nil
}

// Transport returns "gochannel" or "nats".
func (p *Publisher) Transport() string {
	return p.transport
}

// Publish marshals payload to JSON and publishes it on topic. The correlation
// ID from ctx, if any, travels in message metadata.
func (p *Publisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	msg.Metadata.Set("topic", topic)

	err = p.publisher.Publish(topic, msg)
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns a channel of messages published on topic. Consumers must
// Ack each message. The channel closes when ctx is cancelled or the
// Publisher is closed.
func (p *Publisher) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	return p.subscriber.Subscribe(ctx, topic)
}

// Close shuts down the transport. Safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.publisher.Close()
	// GoChannel is both publisher and subscriber.
	if p.transport == "nats" {
		err = errors.Join(err, p.subscriber.Close())
	}
	return err
}
