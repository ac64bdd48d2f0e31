package eth

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/layer-3/signet/core"
)

const (
	keystoreVersion = 3
	keystoreCipher  = "aes-128-ctr"
)

// Bounds on the KDF parameters a document may ask for. The largest allowed
// scrypt instance needs 128*N*r bytes, 1 GiB at the limits.
const (
	minDKLen      = 32
	maxDKLen      = 64
	maxScryptN    = 1 << 20
	maxScryptR    = 8
	maxScryptP    = 16
	maxPBKDF2Iter = 10_000_000
	pbkdf2PRF     = "hmac-sha256"
)

// Scrypt cost presets. Standard is what wallets ship; Light is for tests and
// low-memory devices.
const (
	StandardScryptN = keystore.StandardScryptN
	StandardScryptP = keystore.StandardScryptP
	LightScryptN    = keystore.LightScryptN
	LightScryptP    = keystore.LightScryptP
)

// Keystore is the Web3 Secret Storage v3 document, as written by geth and ethers.
type Keystore struct {
	Address string              `json:"address"`
	Crypto  keystore.CryptoJSON `json:"crypto"`
	ID      string              `json:"id"`
	Version int                 `json:"version"`
}

// AddressHex returns the document address lowercase with a 0x prefix, or "" if absent.
func (k *Keystore) AddressHex() string {
	if k.Address == "" {
		return ""
	}
	return "0x" + strings.TrimPrefix(core.NormalizeAddress(k.Address), "0x")
}

// ParseKeystore checks the structure of a keystore document without decrypting it.
func ParseKeystore(data []byte) (*Keystore, error) {
	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidKeystoreFormat, err)
	}

	if ks.Version != keystoreVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", core.ErrInvalidKeystoreFormat, ks.Version)
	}
	if ks.Crypto.Cipher != keystoreCipher {
		return nil, fmt.Errorf("%w: unsupported cipher %q", core.ErrInvalidKeystoreFormat, ks.Crypto.Cipher)
	}
	if err := validateKDFParams(ks.Crypto.KDF, ks.Crypto.KDFParams); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidKeystoreFormat, err)
	}

	fields := map[string]string{
		"ciphertext": ks.Crypto.CipherText,
		"mac":        ks.Crypto.MAC,
		"iv":         ks.Crypto.CipherParams.IV,
	}
	for name, value := range fields {
		if value == "" {
			return nil, fmt.Errorf("%w: missing %s", core.ErrInvalidKeystoreFormat, name)
		}
		if _, err := hex.DecodeString(value); err != nil {
			return nil, fmt.Errorf("%w: %s is not hex", core.ErrInvalidKeystoreFormat, name)
		}
	}

	if ks.Address != "" {
		if _, err := core.ValidateAddress(ks.AddressHex()); err != nil {
			return nil, fmt.Errorf("%w: bad address", core.ErrInvalidKeystoreFormat)
		}
	}
	return &ks, nil
}

// validateKDFParams checks every parameter the KDF will read, so decryption
// never sees a missing or mistyped value or an unbounded cost.
func validateKDFParams(kdf string, params map[string]interface{}) error {
	salt, ok := params["salt"].(string)
	if !ok || salt == "" {
		return errors.New("missing salt")
	}
	if _, err := hex.DecodeString(salt); err != nil {
		return errors.New("salt is not hex")
	}

	if _, err := intParam(params, "dklen", minDKLen, maxDKLen); err != nil {
		return err
	}

	switch kdf {
	case "scrypt":
		n, err := intParam(params, "n", 2, maxScryptN)
		if err != nil {
			return err
		}
		if n&(n-1) != 0 {
			return fmt.Errorf("n %d is not a power of two", n)
		}
		if _, err := intParam(params, "r", 1, maxScryptR); err != nil {
			return err
		}
		if _, err := intParam(params, "p", 1, maxScryptP); err != nil {
			return err
		}
	case "pbkdf2":
		if _, err := intParam(params, "c", 1, maxPBKDF2Iter); err != nil {
			return err
		}
		if prf, _ := params["prf"].(string); prf != pbkdf2PRF {
			return fmt.Errorf("unsupported prf %q", params["prf"])
		}
	default:
		return fmt.Errorf("unsupported kdf %q", kdf)
	}
	return nil
}

// intParam reads a JSON number that must be an integer in [lo, hi].
func intParam(params map[string]interface{}, name string, lo, hi int) (int, error) {
	v, ok := params[name].(float64)
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	if v != math.Trunc(v) || v < float64(lo) || v > float64(hi) {
		return 0, fmt.Errorf("%s %v out of range [%d, %d]", name, v, lo, hi)
	}
	return int(v), nil
}

// KeystoreCodec encrypts private keys into v3 keystore documents and back.
type KeystoreCodec struct {
	scryptN int
	scryptP int
}

// NewKeystoreCodec creates a codec that writes backups with the given scrypt cost.
// Decryption always uses the parameters stored in the document.
func NewKeystoreCodec(scryptN, scryptP int) *KeystoreCodec {
	if scryptN <= 0 {
		scryptN = StandardScryptN
	}
	if scryptP <= 0 {
		scryptP = StandardScryptP
	}
	return &KeystoreCodec{scryptN: scryptN, scryptP: scryptP}
}

// Encrypt seals key under password with a fresh salt and IV.
func (c *KeystoreCodec) Encrypt(key *ecdsa.PrivateKey, password string) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("encrypt: nil private key")
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", core.ErrInvalidPassword)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keystore id: %w", err)
	}

	data, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, password, c.scryptN, c.scryptP)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt key: %w", err)
	}
	return data, nil
}

// Decrypt opens a keystore document. The MAC is checked before any plaintext
// is produced, so a wrong password fails with core.ErrInvalidPassword.
func (c *KeystoreCodec) Decrypt(data []byte, password string) (*ecdsa.PrivateKey, error) {
	ks, err := ParseKeystore(data)
	if err != nil {
		return nil, err
	}

	key, err := decryptKey(data, password)
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, core.ErrInvalidPassword
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidKeystoreFormat, err)
	}

	if want := ks.AddressHex(); want != "" && AddressOf(&key.PrivateKey.PublicKey) != want {
		core.ZeroKey(key.PrivateKey)
		return nil, fmt.Errorf("%w: key does not match address %s", core.ErrInvalidKeystoreFormat, want)
	}
	return key.PrivateKey, nil
}

// decryptKey turns a panic inside go-ethereum's KDF parameter handling into an error.
func decryptKey(data []byte, password string) (key *keystore.Key, err error) {
	defer func() {
		if r := recover(); r != nil {
			key, err = nil, fmt.Errorf("malformed kdf parameters: %v", r)
		}
	}()
	return keystore.DecryptKey(data, password)
}

// EncryptContext is Encrypt run off the caller's goroutine. Cancelling ctx
// returns early; the KDF still runs to completion and its output is dropped.
func (c *KeystoreCodec) EncryptContext(ctx context.Context, key *ecdsa.PrivateKey, password string) ([]byte, error) {
	return runKDF(ctx, func() ([]byte, error) {
		return c.Encrypt(key, password)
	}, func([]byte) {})
}

// DecryptContext is Decrypt run off the caller's goroutine. A key decrypted
// after ctx was cancelled is wiped and discarded.
func (c *KeystoreCodec) DecryptContext(ctx context.Context, data []byte, password string) (*ecdsa.PrivateKey, error) {
	return runKDF(ctx, func() (*ecdsa.PrivateKey, error) {
		return c.Decrypt(data, password)
	}, core.ZeroKey)
}

func runKDF[T any](ctx context.Context, fn func() (T, error), discard func(T)) (T, error) {
	type result struct {
		value T
		err   error
	}

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: kdf panicked: %v", core.ErrInvalidKeystoreFormat, r)}
			}
		}()
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				discard(r.value)
			}
		}()
		var zero T
		return zero, ctx.Err()
	}
}
