package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream the payment collaborator consumes.
const DefaultStream = "gigmate:escrow:events"

// StreamClient is the subset of the Redis client used to publish events.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	client StreamClient
	stream string
	maxLen int64
}

// NewRedisPublisher builds a publisher. maxLen trims the stream
// approximately; zero keeps every entry.
func NewRedisPublisher(client StreamClient, stream string, maxLen int64) *RedisPublisher {
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Notify implements Notifier.
func (p *RedisPublisher) Notify(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("redis publisher is not configured")
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: streamValues(event),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish %s for booking %s: %w", event.Type, event.BookingID, err)
	}
	return nil
}

func streamValues(event Event) map[string]any {
	values := map[string]any{
		"type":          string(event.Type),
		"booking_id":    event.BookingID,
		"venue_id":      event.VenueID,
		"musician_id":   event.MusicianID,
		"status":        string(event.Status),
		"currency":      event.Currency,
		"agreed_rate":   event.AgreedRate.String(),
		"gigmate_fee":   event.GigmateFee.String(),
		"mediation_fee": event.MediationFee.String(),
		"total_amount":  event.TotalAmount.String(),
		"occurred_at":   event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if event.Party != "" {
		values["party"] = string(event.Party)
	}
	if event.Reason != "" {
		values["reason"] = event.Reason
	}
	return values
}

// OpenRedis connects to Redis at url (redis://...) and verifies the link.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
