package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/layer-3/signet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "way focus resist come truly raccoon industry local vicious fade helmet knee"
	testAddress  = "0x715e0864ac212937f3a5710f2a434925930187af"
)

// scriptedPrompter answers prompts in order.
type scriptedPrompter struct {
	answers []string
	labels  []string
}

func (p *scriptedPrompter) Secret(label string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return "", errors.New("unexpected prompt " + label)
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func run(t *testing.T, p prompter, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(p)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMnemonicCommand(t *testing.T) {
	out, err := run(t, &scriptedPrompter{}, "mnemonic")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 12)

	out, err = run(t, &scriptedPrompter{}, "mnemonic", "--words", "24")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 24)

	_, err = run(t, &scriptedPrompter{}, "mnemonic", "--words", "13")
	assert.ErrorIs(t, err, core.ErrInvalidMnemonic)
}

func TestDeriveCommand(t *testing.T) {
	out, err := run(t, &scriptedPrompter{answers: []string{testMnemonic}}, "derive")
	require.NoError(t, err)
	assert.Contains(t, out, testAddress)
	assert.Contains(t, out, core.DerivationPath)
	assert.NotContains(t, out, "raccoon", "the phrase is never echoed")

	_, err = run(t, &scriptedPrompter{answers: []string{"way focus"}}, "derive")
	assert.ErrorIs(t, err, core.ErrInvalidMnemonic)
}

func TestBackupInspectRecover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")

	out, err := run(t, &scriptedPrompter{answers: []string{testMnemonic, "pw1", "pw1"}},
		"backup", "--light", "--qr", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, testAddress)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = run(t, &scriptedPrompter{}, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, testAddress)
	assert.Contains(t, out, "scrypt")

	_, err = run(t, &scriptedPrompter{answers: []string{"pw2"}}, "recover", path)
	assert.ErrorIs(t, err, core.ErrInvalidPassword)

	out, err = run(t, &scriptedPrompter{answers: []string{"pw1"}}, "recover", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Recovered "+testAddress)
}

func TestBackupRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, []byte("precious"), 0o644))

	_, err := run(t, &scriptedPrompter{answers: []string{testMnemonic, "pw1", "pw1"}},
		"backup", "--light", "--out", path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(data))
}

func TestBackupReusesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := run(t, &scriptedPrompter{answers: []string{testMnemonic, "pw1", "pw1"}},
		"backup", "--light", "--out", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestBackupPasswordChecks(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, &scriptedPrompter{answers: []string{testMnemonic, "pw1", "pw2"}},
		"backup", "--light", "--out", filepath.Join(dir, "a.json"))
	assert.ErrorContains(t, err, "do not match")

	_, err = run(t, &scriptedPrompter{answers: []string{testMnemonic, ""}},
		"backup", "--light", "--out", filepath.Join(dir, "b.json"))
	assert.ErrorContains(t, err, "empty")

	_, err = run(t, &scriptedPrompter{}, "backup")
	assert.ErrorContains(t, err, "--out")
}

func TestInspectRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1}`), 0o600))

	_, err := run(t, &scriptedPrompter{}, "inspect", path)
	assert.ErrorIs(t, err, core.ErrInvalidKeystoreFormat)
}
