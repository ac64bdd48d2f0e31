package eth

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/signet/core"
)

// derivationPath is core.DerivationPath in index form.
var derivationPath = accounts.DefaultBaseDerivationPath

// DeriveKeyPair derives the wallet key at m/44'/60'/0'/0/0 from a BIP-39 seed.
// It fails only when the seed length is outside 16..64 bytes.
func DeriveKeyPair(seed []byte) (*core.KeyPair, error) {
	// The network only selects xprv version bytes, which never leave this function.
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDerivationFailure, err)
	}

	node := master
	for _, index := range derivationPath {
		child, err := node.Derive(index)
		node.Zero()
		if err != nil {
			return nil, fmt.Errorf("%w: child %d: %v", core.ErrDerivationFailure, index, err)
		}
		node = child
	}
	defer node.Zero()

	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDerivationFailure, err)
	}
	raw := priv.Serialize()
	defer clear(raw)
	priv.Zero()

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDerivationFailure, err)
	}
	return NewKeyPair(key), nil
}

// KeyPairFromMnemonic runs seed generation and derivation, wiping the seed.
func KeyPairFromMnemonic(phrase, passphrase string) (*core.KeyPair, error) {
	seed, err := SeedFromMnemonic(phrase, passphrase)
	if err != nil {
		return nil, err
	}
	defer clear(seed)

	return DeriveKeyPair(seed)
}

// NewKeyPair wraps a private key with its public key and address.
func NewKeyPair(key *ecdsa.PrivateKey) *core.KeyPair {
	return &core.KeyPair{
		PrivateKey: key,
		PublicKey:  crypto.FromECDSAPub(&key.PublicKey),
		Address:    AddressOf(&key.PublicKey),
	}
}

// AddressOf returns the lowercase 0x-prefixed address of a public key.
func AddressOf(pub *ecdsa.PublicKey) string {
	return core.NormalizeAddress(crypto.PubkeyToAddress(*pub).Hex())
}
