package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/eth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMnemonic(t *testing.T) {
	kp, err := testResolver().Resolve(context.Background(), mnemonicCred())
	require.NoError(t, err)
	defer kp.Zero()
	assert.Equal(t, testAddress, kp.Address)

	ptr := &core.MnemonicCredential{Phrase: testMnemonic}
	kp2, err := testResolver().Resolve(context.Background(), ptr)
	require.NoError(t, err)
	defer kp2.Zero()
	assert.Equal(t, testAddress, kp2.Address)
}

func TestResolveBackup(t *testing.T) {
	resolver := testResolver()
	kp, err := eth.KeyPairFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	data, err := resolver.Codec().Encrypt(kp.PrivateKey, "pw1")
	require.NoError(t, err)
	kp.Zero()

	_, err = resolver.Resolve(context.Background(), core.BackupCredential{Keystore: data, Password: "pw2"})
	assert.ErrorIs(t, err, core.ErrInvalidPassword)

	got, err := resolver.Resolve(context.Background(), core.BackupCredential{Keystore: data, Password: "pw1"})
	require.NoError(t, err)
	defer got.Zero()
	assert.Equal(t, testAddress, got.Address)
}

func TestResolveCancelled(t *testing.T) {
	resolver := NewKeyResolver(eth.NewKeystoreCodec(eth.LightScryptN, eth.LightScryptP))
	kp, err := eth.KeyPairFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	data, err := resolver.Codec().Encrypt(kp.PrivateKey, "pw1")
	require.NoError(t, err)
	kp.Zero()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = resolver.Resolve(ctx, core.BackupCredential{Keystore: data, Password: "pw1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveInvalidCredential(t *testing.T) {
	_, err := testResolver().Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrInvalidCredential)

	var nilPtr *core.BackupCredential
	_, err = testResolver().Resolve(context.Background(), nilPtr)
	assert.ErrorIs(t, err, core.ErrInvalidCredential)
}

func TestResolverAddress(t *testing.T) {
	resolver := testResolver()
	ctx := context.Background()
	backup := backupOf(t, resolver, "pw1")

	address, err := resolver.Address(ctx, mnemonicCred())
	require.NoError(t, err)
	assert.Equal(t, testAddress, address)

	address, err = resolver.Address(ctx, &core.BackupCredential{Keystore: backup, Password: "wrong"})
	require.NoError(t, err, "recorded address is read without decrypting")
	assert.Equal(t, testAddress, address)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(backup, &doc))
	delete(doc, "address")
	anonymous, err := json.Marshal(doc)
	require.NoError(t, err)

	address, err = resolver.Address(ctx, core.BackupCredential{Keystore: anonymous, Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, testAddress, address)

	_, err = resolver.Address(ctx, core.BackupCredential{Keystore: anonymous, Password: "pw2"})
	assert.ErrorIs(t, err, core.ErrInvalidPassword)

	_, err = resolver.Address(ctx, core.BackupCredential{Keystore: []byte("{}"), Password: "pw1"})
	assert.ErrorIs(t, err, core.ErrInvalidKeystoreFormat)

	_, err = resolver.Address(ctx, nil)
	assert.ErrorIs(t, err, core.ErrInvalidCredential)
}
