package core

import "errors"

var (
	ErrInvalidMnemonic          = errors.New("invalid mnemonic")
	ErrDerivationFailure        = errors.New("key derivation failed")
	ErrInvalidSignature         = errors.New("invalid signature")
	ErrSignatureSelfCheckFailed = errors.New("signature self-check failed")
	ErrAddressMismatch          = errors.New("address does not match authenticated address")
	ErrInvalidPassword          = errors.New("invalid keystore password")
	ErrInvalidKeystoreFormat    = errors.New("invalid keystore format")
	ErrNonceUnavailable         = errors.New("nonce unavailable")
	ErrNonceReused              = errors.New("nonce already used")
	ErrRemoteVerificationFailed = errors.New("remote verification failed")
	ErrIntentRejected           = errors.New("intent rejected")
	ErrInvalidCredential        = errors.New("exactly one of mnemonic or keystore must be supplied")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidAddress           = errors.New("invalid ethereum address")
	ErrInvalidAction            = errors.New("invalid action")
	ErrNotAuthenticated         = errors.New("no authenticated address")
)
