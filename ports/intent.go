package ports

import (
	"context"

	"github.com/layer-3/signet/core"
)

// NonceIssuer hands out transaction nonces
type NonceIssuer interface {
	TxNonce(ctx context.Context, address string) (string, error)
}

// IntentSubmitter forwards signed intents to the transaction service
type IntentSubmitter interface {
	Submit(ctx context.Context, intent core.SignedIntent) (core.Submission, error)
}
