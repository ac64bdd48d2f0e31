package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/eth"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "way focus resist come truly raccoon industry local vicious fade helmet knee"
	testAddress  = "0x715e0864ac212937f3a5710f2a434925930187af"
	testApp      = "YuteBlockchain"
)

var errTransport = errors.New("connection refused")

type fakeAuthService struct {
	mu         sync.Mutex
	nonce      string
	nonceErr   error
	verdict    core.Verification
	verifyErr  error
	challenges []string
	proofs     []core.LoginProof
	onVerify   func()
}

func (f *fakeAuthService) Challenge(ctx context.Context, address string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.challenges = append(f.challenges, address)
	return f.nonce, f.nonceErr
}

func (f *fakeAuthService) Verify(ctx context.Context, proof core.LoginProof) (core.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proofs = append(f.proofs, proof)
	if f.onVerify != nil {
		f.onVerify()
	}
	return f.verdict, f.verifyErr
}

type fakeNonceIssuer struct {
	nonce string
	err   error
	calls int
}

func (f *fakeNonceIssuer) TxNonce(ctx context.Context, address string) (string, error) {
	f.calls++
	return f.nonce, f.err
}

type fakeSubmitter struct {
	submission core.Submission
	err        error
	intents    []core.SignedIntent
	onSubmit   func()
}

func (f *fakeSubmitter) Submit(ctx context.Context, intent core.SignedIntent) (core.Submission, error) {
	f.intents = append(f.intents, intent)
	if f.onSubmit != nil {
		f.onSubmit()
	}
	return f.submission, f.err
}

type fakeSessionReader struct {
	session *core.Session
	err     error
}

func (f *fakeSessionReader) TokenToSession(token string) (*core.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.session
	return &s, nil
}

type fakePublisher struct {
	logins  []string
	intents []core.SignedIntent
	err     error
}

func (f *fakePublisher) PublishLogin(ctx context.Context, address string, nonce string) error {
	f.logins = append(f.logins, address+"/"+nonce)
	return f.err
}

func (f *fakePublisher) PublishIntent(ctx context.Context, intent core.SignedIntent, submission core.Submission) error {
	f.intents = append(f.intents, intent)
	return f.err
}

type fakeLedger struct {
	used map[string]bool
	err  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{used: make(map[string]bool)}
}

func (f *fakeLedger) Consume(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.used[key] {
		return false, nil
	}
	f.used[key] = true
	return true, nil
}

func (f *fakeLedger) IsConsumed(ctx context.Context, key string) (bool, error) {
	return f.used[key], f.err
}

func testResolver() *KeyResolver {
	return NewKeyResolver(eth.NewKeystoreCodec(eth.LightScryptN, eth.LightScryptP))
}

func mnemonicCred() core.Credential {
	return core.MnemonicCredential{Phrase: testMnemonic}
}

// capturingSigner signs normally and remembers the key it was handed.
func capturingSigner(captured **ecdsa.PrivateKey) signFunc {
	return func(message []byte, key *ecdsa.PrivateKey) (core.Signature, error) {
		*captured = key
		return eth.SignPersonal(message, key)
	}
}

func backupOf(t *testing.T, resolver *KeyResolver, password string) []byte {
	t.Helper()
	kp, err := eth.KeyPairFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	defer kp.Zero()
	data, err := resolver.Codec().Encrypt(kp.PrivateKey, password)
	require.NoError(t, err)
	return data
}

// wrongKeySigner signs with a fresh key so the self-check cannot pass.
func wrongKeySigner(message []byte, _ *ecdsa.PrivateKey) (core.Signature, error) {
	other, err := crypto.GenerateKey()
	if err != nil {
		return core.Signature{}, err
	}
	return eth.SignPersonal(message, other)
}
