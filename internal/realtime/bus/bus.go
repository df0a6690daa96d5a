// Package bus carries SSE messages between API instances so a draw started on
// one instance reaches subscribers connected to another.
package bus

import (
	"context"

	"github.com/yungbote/wishlist-backend/internal/realtime"
)

// Handler receives every message published by any instance, this one included.
type Handler func(msg realtime.SSEMessage)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	// StartForwarder subscribes and returns once the subscription is live.
	// Delivery stops when ctx is done or the bus is closed.
	StartForwarder(ctx context.Context, h Handler) error
	Close() error
}
