package notify

import (
	"context"
	"encoding/json"
	"log"

	"kwickpay/live"
	"kwickpay/models"

	"github.com/redis/go-redis/v9"
)

// Notifier broadcasts transaction state changes to interested live listeners.
// Publishing is fire-and-forget: implementations must never block or fail the
// caller's transaction path, even when no listener is present.
type Notifier interface {
	Publish(ctx context.Context, event models.TxnEvent)
}

// Nop discards every event. Used in tests and as a safe default.
type Nop struct{}

func (Nop) Publish(context.Context, models.TxnEvent) {}

// HubNotifier pushes events to the in-process websocket hub, scoped to the
// event's user room.
type HubNotifier struct {
	Hub *live.Hub
}

func (h *HubNotifier) Publish(_ context.Context, event models.TxnEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[NOTIFY] marshal failed: %v", err)
		return
	}
	h.Hub.Broadcast(event.UserID, data)
}

// RedisNotifier publishes events on a redis channel so out-of-process
// consumers (other instances, ops tooling) can observe them.
type RedisNotifier struct {
	Conn    *redis.Client
	Channel string
}

func (r *RedisNotifier) Publish(ctx context.Context, event models.TxnEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[NOTIFY] marshal failed: %v", err)
		return
	}
	if err := r.Conn.Publish(ctx, r.Channel, data).Err(); err != nil {
		log.Printf("[NOTIFY] redis publish failed: %v", err)
	}
}

// Multi fans a single event out to several notifiers.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, event models.TxnEvent) {
	for _, n := range m {
		n.Publish(ctx, event)
	}
}
