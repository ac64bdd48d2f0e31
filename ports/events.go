package ports

import (
	"context"

	"github.com/layer-3/signet/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, address string, nonce string) error
	PublishIntent(ctx context.Context, intent core.SignedIntent, submission core.Submission) error
}
