package eth

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/signet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRecoverRoundTrip(t *testing.T) {
	messages := []string{
		"",
		"Login to YuteBlockchain nonce:n1",
		"Send 10.00 to 0xdeadbeef00000000000000000000000000000000 nonce:n2",
		" BUY 1.50 nonce:abc",
		strings.Repeat("x", 4096),
	}

	for i := 0; i < 5; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		want := AddressOf(&key.PublicKey)

		for _, msg := range messages {
			sig, err := SignPersonal([]byte(msg), key)
			require.NoError(t, err)
			assert.Contains(t, []byte{27, 28}, sig[64])

			got, err := RecoverAddress([]byte(msg), sig)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestSignLoginMessageGoldenKey(t *testing.T) {
	kp, err := KeyPairFromMnemonic(goldenMnemonic, "")
	require.NoError(t, err)
	defer kp.Zero()

	msg := []byte(core.LoginMessage("YuteBlockchain", "n1"))
	sig, err := SignPersonal(msg, kp.PrivateKey)
	require.NoError(t, err)

	ok, err := VerifyAddress(msg, sig, "0x715E0864AC212937F3A5710F2A434925930187AF")
	require.NoError(t, err)
	assert.True(t, ok)

	recovered, err := RecoverAddress(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, goldenAddress, recovered)
}

func TestRecoverAddressTamperedMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := SignPersonal([]byte("Send 10.00 to 0xabc nonce:n"), key)
	require.NoError(t, err)

	got, err := RecoverAddress([]byte("Send 99.00 to 0xabc nonce:n"), sig)
	require.NoError(t, err)
	assert.NotEqual(t, AddressOf(&key.PublicKey), got)
}

func TestRecoverAddressAcceptsRecoveryIDEncodings(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	msg := []byte("hello")

	sig, err := SignPersonal(msg, key)
	require.NoError(t, err)
	parity := sig[64] - 27

	for _, v := range []byte{parity, parity + 27, parity + 35, parity + 37} {
		alt := sig
		alt[64] = v
		got, err := RecoverAddress(msg, alt)
		require.NoError(t, err, "v=%d", v)
		assert.Equal(t, AddressOf(&key.PublicKey), got)
	}

	bad := sig
	bad[64] = 5
	_, err = RecoverAddress(msg, bad)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestRecoverAddressRejectsHighS(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	msg := []byte("hello")

	sig, err := SignPersonal(msg, key)
	require.NoError(t, err)

	s := new(big.Int).SetBytes(sig[32:64])
	highS := new(big.Int).Sub(crypto.S256().Params().N, s)
	highS.FillBytes(sig[32:64])
	sig[64] ^= 1

	_, err = RecoverAddress(msg, sig)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestParseSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := SignPersonal([]byte("hello"), key)
	require.NoError(t, err)

	parsed, err := ParseSignature(sig.Hex())
	require.NoError(t, err)
	assert.Equal(t, sig, parsed)

	parsed, err = ParseSignature(strings.TrimPrefix(sig.Hex(), "0x"))
	require.NoError(t, err)
	assert.Equal(t, sig, parsed)

	_, err = ParseSignature("0x1234")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)

	_, err = ParseSignature("0xnothex")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestSignPersonalNilKey(t *testing.T) {
	_, err := SignPersonal([]byte("x"), nil)
	assert.Error(t, err)
}
