package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

// SSEClient is one open stream. Outbound is closed by SSEHub.CloseClient.
type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	once     sync.Once
	Logger   *logger.Logger
}

// UserChannel is the channel every stream of userID subscribes to.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}
