package eth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/signet/core"
)

// PersonalHash is the EIP-191 digest of keccak256("\x19Ethereum Signed Message:\n" + len(message) + message).
func PersonalHash(message []byte) []byte {
	return accounts.TextHash(message)
}

// SignPersonal signs message with the personal-message scheme. V is 27 or 28.
func SignPersonal(message []byte, key *ecdsa.PrivateKey) (core.Signature, error) {
	var sig core.Signature
	if key == nil {
		return sig, fmt.Errorf("sign: nil private key")
	}

	raw, err := crypto.Sign(PersonalHash(message), key)
	if err != nil {
		return sig, fmt.Errorf("sign: %w", err)
	}
	copy(sig[:], raw)
	sig[64] += 27
	return sig, nil
}

// RecoverAddress returns the lowercase address that produced sig over message.
func RecoverAddress(message []byte, sig core.Signature) (string, error) {
	v, err := recoveryID(sig[64])
	if err != nil {
		return "", err
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return "", fmt.Errorf("%w: non-canonical r/s values", core.ErrInvalidSignature)
	}

	compact := make([]byte, core.SignatureLength)
	copy(compact, sig[:64])
	compact[64] = v

	pub, err := crypto.SigToPub(PersonalHash(message), compact)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}
	return AddressOf(pub), nil
}

// VerifyAddress recovers the signer and compares it with the expected address.
func VerifyAddress(message []byte, sig core.Signature, expected string) (bool, error) {
	recovered, err := RecoverAddress(message, sig)
	if err != nil {
		return false, err
	}
	return recovered == core.NormalizeAddress(expected), nil
}

// ParseSignature decodes a 65-byte hex signature, with or without the 0x prefix.
func ParseSignature(s string) (core.Signature, error) {
	var sig core.Signature

	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}
	if len(raw) != core.SignatureLength {
		return sig, fmt.Errorf("%w: signature must be %d bytes, got %d", core.ErrInvalidSignature, core.SignatureLength, len(raw))
	}
	copy(sig[:], raw)
	return sig, nil
}

// recoveryID maps the V byte to 0 or 1. Accepts raw (0/1), personal-sign
// (27/28) and EIP-155 (>= 35) encodings.
func recoveryID(v byte) (byte, error) {
	switch {
	case v == 0 || v == 1:
		return v, nil
	case v == 27 || v == 28:
		return v - 27, nil
	case v >= 35:
		return (v - 35) % 2, nil
	default:
		return 0, fmt.Errorf("%w: bad recovery id %d", core.ErrInvalidSignature, v)
	}
}
