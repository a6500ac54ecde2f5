package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/sse"
)

// NotifierBus mirrors the Redis bus Publish signature so multi-instance
// fan-out can be plugged in without this package importing the Redis client.
type NotifierBus interface {
	Publish(ctx context.Context, msg sse.SSEMessage) error
}

// Notifier pushes evaluation lifecycle events to the owner's SSE channel.
type Notifier interface {
	Publish(ctx context.Context, userID uuid.UUID, event sse.SSEEvent, data any)
}

type sseNotifier struct {
	log *logger.Logger
	hub *sse.SSEHub
	bus NotifierBus
}

// NewNotifier accepts a nil bus; events then stay within this process.
func NewNotifier(log *logger.Logger, hub *sse.SSEHub, bus NotifierBus) Notifier {
	return &sseNotifier{
		log: log.With("service", "Notifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *sseNotifier) Publish(ctx context.Context, userID uuid.UUID, event sse.SSEEvent, data any) {
	msg := sse.SSEMessage{
		Channel: userID.String(),
		Event:   event,
		Data:    data,
	}
	n.hub.Broadcast(msg)
	if n.bus != nil {
		if err := n.bus.Publish(ctx, msg); err != nil {
			n.log.Warn("SSE bus publish failed", "event", event, "error", err)
		}
	}
}
