package service

import (
	"context"
	"fmt"

	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/eth"
)

// KeyResolver turns a Credential into a key pair
type KeyResolver struct {
	codec *eth.KeystoreCodec
}

// NewKeyResolver creates a resolver that opens backups with codec
func NewKeyResolver(codec *eth.KeystoreCodec) *KeyResolver {
	if codec == nil {
		codec = eth.NewKeystoreCodec(eth.StandardScryptN, eth.StandardScryptP)
	}
	return &KeyResolver{codec: codec}
}

// Resolve derives or decrypts the key behind cred. The caller owns the
// returned key pair and must Zero it.
func (r *KeyResolver) Resolve(ctx context.Context, cred core.Credential) (*core.KeyPair, error) {
	switch c := cred.(type) {
	case core.MnemonicCredential:
		return eth.KeyPairFromMnemonic(c.Phrase, c.Passphrase)
	case *core.MnemonicCredential:
		if c == nil {
			return nil, core.ErrInvalidCredential
		}
		return eth.KeyPairFromMnemonic(c.Phrase, c.Passphrase)
	case core.BackupCredential:
		return r.decrypt(ctx, c)
	case *core.BackupCredential:
		if c == nil {
			return nil, core.ErrInvalidCredential
		}
		return r.decrypt(ctx, *c)
	default:
		return nil, core.ErrInvalidCredential
	}
}

// Address returns the address behind cred without handing out its key. A
// backup that records its address is answered from the document alone and
// its password is only checked once the key is needed.
func (r *KeyResolver) Address(ctx context.Context, cred core.Credential) (string, error) {
	var data []byte
	switch c := cred.(type) {
	case core.BackupCredential:
		data = c.Keystore
	case *core.BackupCredential:
		if c != nil {
			data = c.Keystore
		}
	}
	if data != nil {
		ks, err := eth.ParseKeystore(data)
		if err != nil {
			return "", fmt.Errorf("failed to open backup: %w", err)
		}
		if address := ks.AddressHex(); address != "" {
			return address, nil
		}
	}

	kp, err := r.Resolve(ctx, cred)
	if err != nil {
		return "", err
	}
	kp.Zero()
	return kp.Address, nil
}

func (r *KeyResolver) decrypt(ctx context.Context, c core.BackupCredential) (*core.KeyPair, error) {
	key, err := r.codec.DecryptContext(ctx, c.Keystore, c.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	return eth.NewKeyPair(key), nil
}

// Codec returns the keystore codec used for backups
func (r *KeyResolver) Codec() *eth.KeystoreCodec {
	return r.codec
}
