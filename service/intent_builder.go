package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/eth"
	"github.com/layer-3/signet/ports"
	"go.uber.org/zap"
)

const defaultNonceTTL = 10 * time.Minute

// IntentBuilder signs send, buy and sell intents for the authenticated user
type IntentBuilder struct {
	nonces    ports.NonceIssuer
	submitter ports.IntentSubmitter
	ledger    ports.NonceLedger
	resolver  *KeyResolver
	eventPub  ports.EventPublisher
	logger    *zap.Logger

	nonceTTL time.Duration
	hook     func(core.IntentState)
	sign     signFunc
}

// IntentOption configures an IntentBuilder
type IntentOption func(*IntentBuilder)

// WithIntentStateHook reports every state the flow enters
func WithIntentStateHook(hook func(core.IntentState)) IntentOption {
	return func(b *IntentBuilder) { b.hook = hook }
}

// WithIntentEvents publishes an event for every confirmed intent
func WithIntentEvents(eventPub ports.EventPublisher) IntentOption {
	return func(b *IntentBuilder) { b.eventPub = eventPub }
}

// WithNonceTTL sets how long a used nonce is remembered by the ledger
func WithNonceTTL(ttl time.Duration) IntentOption {
	return func(b *IntentBuilder) {
		if ttl > 0 {
			b.nonceTTL = ttl
		}
	}
}

// NewIntentBuilder creates a new intent builder. nonces and submitter may be
// nil when only Sign is used.
func NewIntentBuilder(
	nonces ports.NonceIssuer,
	submitter ports.IntentSubmitter,
	ledger ports.NonceLedger,
	resolver *KeyResolver,
	logger *zap.Logger,
	opts ...IntentOption,
) *IntentBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewKeyResolver(nil)
	}
	b := &IntentBuilder{
		nonces:    nonces,
		submitter: submitter,
		ledger:    ledger,
		resolver:  resolver,
		logger:    logger,
		nonceTTL:  defaultNonceTTL,
		sign:      eth.SignPersonal,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Submit fetches a nonce, signs the intent and hands it to the submitter.
// The credential's address is checked against the authenticated address
// before any remote call, and the key is wiped before submission.
func (b *IntentBuilder) Submit(ctx context.Context, req core.IntentRequest) (*core.IntentReceipt, error) {
	receipt := &core.IntentReceipt{State: core.IntentIdle}
	b.enter(receipt, core.IntentIdle)

	if b.nonces == nil || b.submitter == nil {
		return b.reject(receipt, fmt.Errorf("%w: no transaction service configured", core.ErrNonceUnavailable))
	}

	req, err := validateIntent(req)
	if err != nil {
		return b.reject(receipt, err)
	}

	address, err := b.resolver.Address(ctx, req.Credential)
	if err != nil {
		return b.reject(receipt, err)
	}
	if address != req.AuthenticatedAddress {
		return b.reject(receipt, fmt.Errorf("%w: key %s, session %s", core.ErrAddressMismatch, address, req.AuthenticatedAddress))
	}

	b.enter(receipt, core.IntentAwaitingNonce)
	nonce, err := b.nonces.TxNonce(ctx, address)
	if err != nil {
		return b.reject(receipt, fmt.Errorf("%w: %v", core.ErrNonceUnavailable, err))
	}
	if strings.TrimSpace(nonce) == "" {
		return b.reject(receipt, fmt.Errorf("%w: empty nonce", core.ErrNonceUnavailable))
	}

	b.enter(receipt, core.IntentSigning)
	intent, err := b.signFor(ctx, req, nonce)
	if err != nil {
		return b.reject(receipt, err)
	}
	receipt.Intent = *intent
	b.enter(receipt, core.IntentSelfVerified)

	b.enter(receipt, core.IntentSubmitted)
	submission, err := b.submitter.Submit(ctx, *intent)
	if err != nil {
		return b.reject(receipt, fmt.Errorf("%w: %v", core.ErrIntentRejected, err))
	}
	receipt.Submission = submission
	if !submission.Accepted {
		return b.reject(receipt, fmt.Errorf("%w: %s", core.ErrIntentRejected, submission.Reason))
	}

	b.enter(receipt, core.IntentConfirmed)
	if b.eventPub != nil {
		if err := b.eventPub.PublishIntent(ctx, *intent, submission); err != nil {
			b.logger.Warn("Failed to publish intent event", zap.String("intent_id", intent.ID), zap.Error(err))
		}
	}

	b.logger.Info("Intent confirmed",
		zap.String("intent_id", intent.ID),
		zap.String("action", string(intent.Action)),
		zap.String("address", intent.From),
		zap.String("tx_id", submission.TxID),
	)
	return receipt, nil
}

// Sign validates and signs req with a nonce the caller fetched itself.
func (b *IntentBuilder) Sign(ctx context.Context, req core.IntentRequest, nonce string) (*core.SignedIntent, error) {
	if strings.TrimSpace(nonce) == "" {
		return nil, fmt.Errorf("%w: empty nonce", core.ErrNonceUnavailable)
	}

	req, err := validateIntent(req)
	if err != nil {
		return nil, err
	}

	return b.signFor(ctx, req, nonce)
}

// signFor resolves the key for req, signs and wipes the key before returning.
func (b *IntentBuilder) signFor(ctx context.Context, req core.IntentRequest, nonce string) (*core.SignedIntent, error) {
	kp, err := b.resolveFor(ctx, req)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	return b.signIntent(ctx, kp, req, nonce)
}

func (b *IntentBuilder) resolveFor(ctx context.Context, req core.IntentRequest) (*core.KeyPair, error) {
	kp, err := b.resolver.Resolve(ctx, req.Credential)
	if err != nil {
		return nil, err
	}
	if kp.Address != req.AuthenticatedAddress {
		kp.Zero()
		return nil, fmt.Errorf("%w: key %s, session %s", core.ErrAddressMismatch, kp.Address, req.AuthenticatedAddress)
	}
	return kp, nil
}

// signIntent burns the nonce, then signs and self-checks the canonical message.
func (b *IntentBuilder) signIntent(ctx context.Context, kp *core.KeyPair, req core.IntentRequest, nonce string) (*core.SignedIntent, error) {
	message, err := core.IntentMessage(req.Action, req.Amount, req.To, nonce)
	if err != nil {
		return nil, err
	}

	if b.ledger != nil {
		fresh, err := b.ledger.Consume(ctx, ledgerKey(kp.Address, nonce), b.nonceTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to record nonce: %w", err)
		}
		if !fresh {
			return nil, fmt.Errorf("%w: %s", core.ErrNonceReused, nonce)
		}
	}

	sig, err := signAndCheck(b.sign, message, kp)
	if err != nil {
		return nil, err
	}

	return &core.SignedIntent{
		ID:        uuid.New().String(),
		Action:    req.Action,
		From:      kp.Address,
		To:        req.To,
		Amount:    core.FormatAmount(req.Amount),
		Nonce:     nonce,
		Message:   message,
		Signature: sig.Hex(),
	}, nil
}

// validateIntent returns req with its action, amount and addresses normalized.
func validateIntent(req core.IntentRequest) (core.IntentRequest, error) {
	action, err := core.ParseAction(string(req.Action))
	if err != nil {
		return req, err
	}
	req.Action = action

	req.Amount = core.RoundAmount(req.Amount)
	if !req.Amount.IsPositive() {
		return req, fmt.Errorf("%w: must be greater than 0.00", core.ErrInvalidAmount)
	}

	switch action {
	case core.ActionSend:
		to, err := core.ValidateAddress(req.To)
		if err != nil {
			return req, fmt.Errorf("%w: recipient %q", core.ErrInvalidAddress, req.To)
		}
		req.To = to
	default:
		if strings.TrimSpace(req.To) != "" {
			return req, fmt.Errorf("%w: %s takes no recipient", core.ErrInvalidAddress, action)
		}
		req.To = ""
	}

	if strings.TrimSpace(req.AuthenticatedAddress) == "" {
		return req, core.ErrNotAuthenticated
	}
	req.AuthenticatedAddress = core.NormalizeAddress(req.AuthenticatedAddress)

	if req.Credential == nil {
		return req, core.ErrInvalidCredential
	}
	return req, nil
}

func ledgerKey(address, nonce string) string {
	return address + ":" + nonce
}

func (b *IntentBuilder) enter(receipt *core.IntentReceipt, state core.IntentState) {
	receipt.State = state
	if b.hook != nil {
		b.hook(state)
	}
}

func (b *IntentBuilder) reject(receipt *core.IntentReceipt, err error) (*core.IntentReceipt, error) {
	b.enter(receipt, core.IntentRejected)
	b.logger.Warn("Intent rejected", zap.String("nonce", receipt.Intent.Nonce), zap.Error(err))
	return receipt, err
}
