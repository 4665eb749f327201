package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retrobus-essonne/finance/internal/domain"
)

// DefaultEventChannel is the pub/sub channel ledger events are sent to.
const DefaultEventChannel = "finance:events"

// EventMessage is the JSON document published for each outbox event.
type EventMessage struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Publisher sends outbox events to a Redis pub/sub channel.
type Publisher struct {
	client  redis.UniversalClient
	channel string
}

// NewPublisher creates a Publisher on channel.
func NewPublisher(client redis.UniversalClient, channel string) *Publisher {
	if channel == "" {
		channel = DefaultEventChannel
	}

	return &Publisher{client: client, channel: channel}
}

// Publish sends one event. Having no subscriber is not an error.
func (p *Publisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg, err := json.Marshal(EventMessage{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	return p.client.Publish(ctx, p.channel, msg).Err()
}
