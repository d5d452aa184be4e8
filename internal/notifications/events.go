package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"vacancyhub/internal/middleware"
	"vacancyhub/internal/models"

	"github.com/redis/go-redis/v9"
)

// FeedChannel is the Redis pub/sub channel carrying moderation events.
const FeedChannel = "moderation:events"

const (
	EventSubmitted = "posting.submitted"
	EventApproved  = "posting.approved"
	EventRejected  = "posting.rejected"
	EventPublished = "posting.published"

	// EventHello is sent once to each feed client after it registered.
	EventHello = "feed.hello"
)

// Event is one entry of the moderation feed.
type Event struct {
	Type        string        `json:"type"`
	Kind        models.Kind   `json:"kind"`
	PostingID   uint          `json:"posting_id"`
	Status      models.Status `json:"status"`
	ModeratorID *int64        `json:"moderator_id,omitempty"`
	Published   *bool         `json:"published,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	At          time.Time     `json:"at"`
}

type hello struct {
	Type        string    `json:"type"`
	Connections int       `json:"connections"`
	At          time.Time `json:"at"`
}

// Hello builds the greeting frame of a new feed connection.
func Hello(connections int) ([]byte, error) {
	return json.Marshal(hello{Type: EventHello, Connections: connections, At: time.Now().UTC()})
}

// EventBus publishes moderation events into Redis so every instance's feed hub sees them.
type EventBus struct {
	rdb *redis.Client
}

func NewEventBus(rdb *redis.Client) *EventBus {
	return &EventBus{rdb: rdb}
}

// Publish sends e to the feed channel. A bus without Redis is a no-op.
func (b *EventBus) Publish(ctx context.Context, e Event) error {
	if b == nil || b.rdb == nil {
		return nil
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.rdb.Publish(ctx, FeedChannel, string(payload)).Err()
}

// Emit publishes e and logs a failure instead of returning it.
func (b *EventBus) Emit(ctx context.Context, e Event) {
	if err := b.Publish(ctx, e); err != nil {
		middleware.Logger.WarnContext(ctx, "feed event publish failed",
			slog.String("type", e.Type), slog.String("error", err.Error()))
	}
}

// StartSubscriber forwards every feed payload to onMessage until ctx is done.
func (b *EventBus) StartSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if b == nil || b.rdb == nil {
		return nil
	}
	sub := b.rdb.Subscribe(ctx, FeedChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", FeedChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in feed subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
