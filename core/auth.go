package core

import "time"

// AuthState is a step of the challenge login flow.
type AuthState int

const (
	AuthIdle AuthState = iota
	AuthAwaitingChallenge
	AuthSigning
	AuthAwaitingVerification
	AuthAuthenticated
	AuthFailed
)

func (s AuthState) String() string {
	switch s {
	case AuthIdle:
		return "idle"
	case AuthAwaitingChallenge:
		return "awaiting_challenge"
	case AuthSigning:
		return "signing"
	case AuthAwaitingVerification:
		return "awaiting_verification"
	case AuthAuthenticated:
		return "authenticated"
	case AuthFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoginProof is what gets submitted to the external verifier
type LoginProof struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
}

// Verification is the verifier's answer to a LoginProof
type Verification struct {
	Valid bool   `json:"valid"`
	Token string `json:"token,omitempty"` // session token, if the verifier issues one
}

// Session represents a verifier-issued session as seen by the client
type Session struct {
	Address   string    // Ethereum address of the user
	Token     string    // Raw session token
	IssuedAt  time.Time // When the session was issued
	ExpiresAt time.Time // When the session expires
}

// LoginResult is the outcome of one login attempt
type LoginResult struct {
	State   AuthState
	Address string
	Nonce   string
	Session *Session // nil when the verifier returned no decodable token
}
