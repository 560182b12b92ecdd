// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/liftsync/internal/logging"
)

// Sink receives forwarded events. The websocket hub implements it.
type Sink interface {
	BroadcastRaw(messageType string, data []byte)
}

// Bridge forwards every published topic to a Sink. It implements
// suture.Service through Serve.
type Bridge struct {
	publisher *Publisher
	sink      Sink
	topics    []string
}

// NewBridge creates a Bridge forwarding topics (all topics when empty).
func NewBridge(p *Publisher, sink Sink, topics ...string) *Bridge {
	if len(topics) == 0 {
		topics = Topics
	}
	return &Bridge{publisher: p, sink: sink, topics: topics}
}

// Serve subscribes to each topic and forwards messages until ctx is done.
func (b *Bridge) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, topic := range b.topics {
		messages, err := b.publisher.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			for msg := range messages {
				b.sink.BroadcastRaw(topic, msg.Payload)
				msg.Ack()
			}
			logging.Debug().Str("topic", topic).Msg("Event bridge subscription closed")
		}(topic)
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (b *Bridge) String() string {
	return "event-bridge"
}
