package policies

import (
	"context"

	"motelbook/internal/domain/notification"
)

// PushSender delivers one notification to a device token.
type PushSender interface {
	Send(ctx context.Context, token string, n notification.Notification) error
}
