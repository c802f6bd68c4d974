// Package events fans accepted step submissions out to an external sink.
// Publishing is best-effort: it is bounded by a timeout and its failures are
// logged, never returned.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// IngestEvent is the full context of one accepted submission.
type IngestEvent struct {
	UserID         string    `json:"user_id"`
	CompID         string    `json:"comp_id"`
	Date           string    `json:"date"`
	Steps          int       `json:"steps"`
	StoredSteps    int       `json:"stored_steps"`
	Provider       string    `json:"provider"`
	Timezone       string    `json:"tz,omitempty"`
	SourceTS       string    `json:"source_ts,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Mode           string    `json:"mode"`
	AcceptedAt     time.Time `json:"accepted_at"`
}

// Sink delivers an encoded event to a channel.
type Sink interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisSink publishes on a Redis pub/sub channel.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.client.Publish(ctx, channel, payload).Err()
}

// LogSink writes events to the structured log. Used when Redis is not configured.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, channel string, payload []byte) error {
	slog.Info("Event published", "channel", channel, "payload", string(payload))
	return nil
}

// Publisher wraps a Sink with a channel name and a per-call deadline.
type Publisher struct {
	sink    Sink
	channel string
	timeout time.Duration
}

func NewPublisher(sink Sink, channel string, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Publisher{sink: sink, channel: channel, timeout: timeout}
}

// PublishIngest sends ev and reports whether it went out. The request context
// may already be done once the ledger write returns, so only its values are
// kept.
func (p *Publisher) PublishIngest(ctx context.Context, ev IngestEvent) bool {
	if p == nil || p.sink == nil {
		return false
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode ingest event", "uid", ev.UserID, "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.sink.Publish(ctx, p.channel, payload); err != nil {
		slog.Warn("Failed to publish ingest event", "uid", ev.UserID, "comp_id", ev.CompID, "date", ev.Date, "error", err)
		return false
	}
	return true
}
