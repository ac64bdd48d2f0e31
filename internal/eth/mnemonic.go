// Package eth holds the Ethereum key primitives: BIP-39 mnemonics, BIP-32
// derivation, EIP-191 personal signatures and v3 keystore backups.
package eth

import (
	"fmt"
	"strings"

	"github.com/layer-3/signet/core"
	"github.com/tyler-smith/go-bip39"
)

// Entropy sizes for the two supported phrase lengths.
const (
	entropyBits12 = 128
	entropyBits24 = 256
)

// NewMnemonic generates a fresh 12-word phrase.
func NewMnemonic() (string, error) {
	return NewMnemonicWords(12)
}

// NewMnemonicWords generates a fresh phrase of 12 or 24 words.
func NewMnemonicWords(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = entropyBits12
	case 24:
		bits = entropyBits24
	default:
		return "", fmt.Errorf("%d words: %w", words, core.ErrInvalidMnemonic)
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	defer clear(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic trims the phrase and collapses runs of whitespace.
func NormalizeMnemonic(phrase string) string {
	return strings.Join(strings.Fields(phrase), " ")
}

// ValidateMnemonic reports whether phrase has 12 or 24 wordlist words and a valid checksum.
func ValidateMnemonic(phrase string) bool {
	phrase = NormalizeMnemonic(phrase)
	switch len(strings.Fields(phrase)) {
	case 12, 24:
	default:
		return false
	}
	return bip39.IsMnemonicValid(phrase)
}

// SeedFromMnemonic derives the 64-byte BIP-39 seed. The same phrase and
// passphrase always give the same seed. Callers own the returned slice and
// should clear it when done.
func SeedFromMnemonic(phrase, passphrase string) ([]byte, error) {
	phrase = NormalizeMnemonic(phrase)
	if !ValidateMnemonic(phrase) {
		return nil, core.ErrInvalidMnemonic
	}
	return bip39.NewSeed(phrase, passphrase), nil
}
