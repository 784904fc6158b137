package sender

import (
	"context"

	"birthfire/internal/models"
)

// MessageSender delivers one birthday greeting. Implementations must not
// retry on their own; the dispatch layer already guarantees at-most-once and
// a retried send would break it.
type MessageSender interface {
	Send(ctx context.Context, user models.User) error
}
