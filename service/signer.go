package service

import (
	"crypto/ecdsa"

	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/eth"
)

type signFunc func(message []byte, key *ecdsa.PrivateKey) (core.Signature, error)

// signAndCheck signs message with kp and recovers the signer from the result.
// Anything but a clean recovery of kp.Address is a self-check failure.
func signAndCheck(sign signFunc, message string, kp *core.KeyPair) (core.Signature, error) {
	sig, err := sign([]byte(message), kp.PrivateKey)
	if err != nil {
		return core.Signature{}, err
	}

	ok, err := eth.VerifyAddress([]byte(message), sig, kp.Address)
	if err != nil || !ok {
		return core.Signature{}, core.ErrSignatureSelfCheckFailed
	}
	return sig, nil
}
