package core

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DerivationPath is the fixed BIP-44 path every wallet key is derived on.
// Changing it changes every derived address.
const DerivationPath = "m/44'/60'/0'/0/0"

// SignatureLength is the size of a recoverable signature: R || S || V.
const SignatureLength = 65

// KeyPair is a wallet identity held in memory for the duration of one operation.
type KeyPair struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  []byte // uncompressed, 65 bytes, 0x04 prefix
	Address    string // lowercase, 0x-prefixed
}

// PublicKeyHex returns the uncompressed public key as 0x-prefixed hex.
func (k *KeyPair) PublicKeyHex() string {
	return hexutil.Encode(k.PublicKey)
}

// Zero wipes the private scalar. The key pair is unusable afterwards.
func (k *KeyPair) Zero() {
	if k == nil {
		return
	}
	ZeroKey(k.PrivateKey)
	k.PrivateKey = nil
}

// ZeroKey overwrites the words backing the private scalar of key.
func ZeroKey(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}
	clear(key.D.Bits())
	key.D.SetInt64(0)
}

// Signature is a recoverable secp256k1 signature with V in {27, 28}.
type Signature [SignatureLength]byte

// Hex returns the 0x-prefixed hex encoding used on the wire.
func (s Signature) Hex() string {
	return hexutil.Encode(s[:])
}

// NormalizeAddress trims and lower-cases an address for comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ValidateAddress checks that address is a 20-byte hex address and returns it normalized.
func ValidateAddress(address string) (string, error) {
	addr := NormalizeAddress(address)
	if !strings.HasPrefix(addr, "0x") || !common.IsHexAddress(addr) {
		return "", ErrInvalidAddress
	}
	return addr, nil
}

// Credential is the source of a signing key: a mnemonic phrase or an encrypted backup.
type Credential interface {
	credential()
}

// MnemonicCredential resolves to a key through BIP-39 and BIP-32 derivation.
type MnemonicCredential struct {
	Phrase     string
	Passphrase string
}

// BackupCredential resolves to a key by decrypting a keystore document.
type BackupCredential struct {
	Keystore []byte
	Password string
}

func (MnemonicCredential) credential() {}
func (BackupCredential) credential()   {}

// NewCredential picks the credential variant from mutually exclusive inputs.
// Exactly one of mnemonic or keystore must be non-empty.
func NewCredential(mnemonic, passphrase string, keystore []byte, password string) (Credential, error) {
	hasMnemonic := strings.TrimSpace(mnemonic) != ""
	hasKeystore := len(keystore) > 0

	switch {
	case hasMnemonic && !hasKeystore:
		return MnemonicCredential{Phrase: mnemonic, Passphrase: passphrase}, nil
	case hasKeystore && !hasMnemonic:
		return BackupCredential{Keystore: keystore, Password: password}, nil
	default:
		return nil, ErrInvalidCredential
	}
}
