package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/eth"
	"github.com/layer-3/signet/ports"
	"go.uber.org/zap"
)

// AuthFlow runs the challenge-response login against a remote verifier
type AuthFlow struct {
	auth     ports.AuthService
	resolver *KeyResolver
	sessions ports.SessionReader
	eventPub ports.EventPublisher
	appName  string
	logger   *zap.Logger

	hook func(core.AuthState)
	sign signFunc
}

// AuthOption configures an AuthFlow
type AuthOption func(*AuthFlow)

// WithAuthStateHook reports every state the flow enters
func WithAuthStateHook(hook func(core.AuthState)) AuthOption {
	return func(f *AuthFlow) { f.hook = hook }
}

// WithSessionReader decodes the verifier's session token into the login result
func WithSessionReader(sessions ports.SessionReader) AuthOption {
	return func(f *AuthFlow) { f.sessions = sessions }
}

// WithLoginEvents publishes a login event after each successful login
func WithLoginEvents(eventPub ports.EventPublisher) AuthOption {
	return func(f *AuthFlow) { f.eventPub = eventPub }
}

// NewAuthFlow creates a new login flow. auth may be nil when only
// SignChallenge is used.
func NewAuthFlow(auth ports.AuthService, resolver *KeyResolver, appName string, logger *zap.Logger, opts ...AuthOption) *AuthFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewKeyResolver(nil)
	}
	f := &AuthFlow{
		auth:     auth,
		resolver: resolver,
		appName:  appName,
		logger:   logger,
		sign:     eth.SignPersonal,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Login fetches a challenge, signs it and submits the proof. The result is
// Authenticated only if the verifier accepts the proof. The private key only
// exists while the challenge is being signed.
func (f *AuthFlow) Login(ctx context.Context, cred core.Credential) (*core.LoginResult, error) {
	result := &core.LoginResult{State: core.AuthIdle}
	f.enter(result, core.AuthIdle)

	if f.auth == nil {
		return f.fail(result, fmt.Errorf("%w: no auth service configured", core.ErrNonceUnavailable))
	}

	address, err := f.resolver.Address(ctx, cred)
	if err != nil {
		return f.fail(result, err)
	}
	result.Address = address

	f.enter(result, core.AuthAwaitingChallenge)
	nonce, err := f.auth.Challenge(ctx, address)
	if err != nil {
		return f.fail(result, fmt.Errorf("%w: %v", core.ErrNonceUnavailable, err))
	}
	if strings.TrimSpace(nonce) == "" {
		return f.fail(result, fmt.Errorf("%w: empty challenge", core.ErrNonceUnavailable))
	}
	result.Nonce = nonce

	f.enter(result, core.AuthSigning)
	proof, err := f.signFor(ctx, cred, address, nonce)
	if err != nil {
		return f.fail(result, err)
	}

	f.enter(result, core.AuthAwaitingVerification)
	verdict, err := f.auth.Verify(ctx, *proof)
	if err != nil {
		return f.fail(result, fmt.Errorf("%w: %v", core.ErrRemoteVerificationFailed, err))
	}
	if !verdict.Valid {
		return f.fail(result, core.ErrRemoteVerificationFailed)
	}

	f.enter(result, core.AuthAuthenticated)
	result.Session = f.session(address, verdict.Token)

	if f.eventPub != nil {
		if err := f.eventPub.PublishLogin(ctx, address, nonce); err != nil {
			f.logger.Warn("Failed to publish login event", zap.String("address", address), zap.Error(err))
		}
	}

	f.logger.Info("Login authenticated", zap.String("address", address))
	return result, nil
}

// SignChallenge signs a challenge the caller fetched itself. No network
// call is made.
func (f *AuthFlow) SignChallenge(ctx context.Context, cred core.Credential, nonce string) (*core.LoginProof, error) {
	if strings.TrimSpace(nonce) == "" {
		return nil, fmt.Errorf("%w: empty challenge", core.ErrNonceUnavailable)
	}

	kp, err := f.resolver.Resolve(ctx, cred)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	return f.prove(kp, nonce)
}

// signFor resolves the key, signs the challenge and wipes the key before returning.
func (f *AuthFlow) signFor(ctx context.Context, cred core.Credential, address, nonce string) (*core.LoginProof, error) {
	kp, err := f.resolver.Resolve(ctx, cred)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	if kp.Address != address {
		return nil, fmt.Errorf("%w: key %s, challenge for %s", core.ErrAddressMismatch, kp.Address, address)
	}
	return f.prove(kp, nonce)
}

func (f *AuthFlow) prove(kp *core.KeyPair, nonce string) (*core.LoginProof, error) {
	message := core.LoginMessage(f.appName, nonce)
	sig, err := signAndCheck(f.sign, message, kp)
	if err != nil {
		return nil, err
	}

	return &core.LoginProof{
		Address:   kp.Address,
		Signature: sig.Hex(),
		Nonce:     nonce,
		Message:   message,
	}, nil
}

// session never affects the verdict: an undecodable token is logged and kept raw.
func (f *AuthFlow) session(address, token string) *core.Session {
	if token == "" {
		return nil
	}
	if f.sessions == nil {
		return &core.Session{Address: address, Token: token}
	}

	s, err := f.sessions.TokenToSession(token)
	if err != nil {
		f.logger.Warn("Failed to decode session token", zap.String("address", address), zap.Error(err))
		return &core.Session{Address: address, Token: token}
	}
	if s.Address != "" && core.NormalizeAddress(s.Address) != address {
		f.logger.Warn("Session token issued for another address",
			zap.String("address", address), zap.String("token_address", s.Address))
	}
	s.Token = token
	return s
}

func (f *AuthFlow) enter(result *core.LoginResult, state core.AuthState) {
	result.State = state
	if f.hook != nil {
		f.hook(state)
	}
}

func (f *AuthFlow) fail(result *core.LoginResult, err error) (*core.LoginResult, error) {
	f.enter(result, core.AuthFailed)
	f.logger.Warn("Login failed", zap.String("address", result.Address), zap.Error(err))
	return result, err
}
