package ports

import (
	"context"

	"github.com/layer-3/signet/core"
)

// AuthService is the remote challenge issuer and login verifier
type AuthService interface {
	// Challenge returns a fresh single-use nonce for address.
	Challenge(ctx context.Context, address string) (string, error)
	// Verify checks a signed login proof and may return a session token.
	Verify(ctx context.Context, proof core.LoginProof) (core.Verification, error)
}

// SessionReader decodes a verifier-issued session token
type SessionReader interface {
	TokenToSession(token string) (*core.Session, error)
}
