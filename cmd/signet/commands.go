package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/eth"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func newRootCmd(p prompter) *cobra.Command {
	root := &cobra.Command{
		Use:           "signet",
		Short:         "Offline wallet key and backup tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMnemonicCmd(),
		newDeriveCmd(p),
		newBackupCmd(p),
		newInspectCmd(),
		newRecoverCmd(p),
	)
	return root
}

// newMnemonicCmd prints a fresh phrase.
func newMnemonicCmd() *cobra.Command {
	var words int
	cmd := &cobra.Command{
		Use:   "mnemonic",
		Short: "Generate a new recovery phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mnemonic, err := eth.NewMnemonicWords(words)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mnemonic)
			return nil
		},
	}
	cmd.Flags().IntVar(&words, "words", 12, "number of words (12 or 24)")
	return cmd
}

// newDeriveCmd prints the address and public key of a phrase.
func newDeriveCmd(p prompter) *cobra.Command {
	var withPassphrase bool
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Show the address of a recovery phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := promptKeyPair(p, withPassphrase)
			if err != nil {
				return err
			}
			defer kp.Zero()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:       %s\n", core.DerivationPath)
			fmt.Fprintf(out, "Address:    %s\n", kp.Address)
			fmt.Fprintf(out, "Public key: %s\n", kp.PublicKeyHex())
			return nil
		},
	}
	cmd.Flags().BoolVar(&withPassphrase, "passphrase", false, "also prompt for a BIP-39 passphrase")
	return cmd
}

// newBackupCmd writes an encrypted keystore for a phrase.
func newBackupCmd(p prompter) *cobra.Command {
	var (
		out            string
		light          bool
		showQR         bool
		withPassphrase bool
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypt the key of a recovery phrase into a keystore file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}

			kp, err := promptKeyPair(p, withPassphrase)
			if err != nil {
				return err
			}
			defer kp.Zero()

			password, err := newPassword(p)
			if err != nil {
				return err
			}

			codec := eth.NewKeystoreCodec(eth.StandardScryptN, eth.StandardScryptP)
			if light {
				codec = eth.NewKeystoreCodec(eth.LightScryptN, eth.LightScryptP)
			}

			data, err := codec.EncryptContext(cmd.Context(), kp.PrivateKey, password)
			if err != nil {
				return err
			}
			if err := writeBackup(out, data); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote backup for %s to %s\n", kp.Address, out)
			if showQR {
				return printQR(w, kp.Address)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "keystore file to create")
	cmd.Flags().BoolVar(&light, "light", false, "use light scrypt parameters (faster, weaker)")
	cmd.Flags().BoolVar(&showQR, "qr", false, "print the address as a QR code")
	cmd.Flags().BoolVar(&withPassphrase, "passphrase", false, "also prompt for a BIP-39 passphrase")
	return cmd
}

// newInspectCmd shows what a keystore file claims without decrypting it.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <keystore>",
		Short: "Show the address and parameters of a keystore file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read keystore: %w", err)
			}

			ks, err := eth.ParseKeystore(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Address: %s\n", ks.AddressHex())
			fmt.Fprintf(out, "ID:      %s\n", ks.ID)
			fmt.Fprintf(out, "Cipher:  %s\n", ks.Crypto.Cipher)
			fmt.Fprintf(out, "KDF:     %s\n", ks.Crypto.KDF)
			return nil
		},
	}
}

// newRecoverCmd decrypts a keystore file to prove the password opens it.
func newRecoverCmd(p prompter) *cobra.Command {
	return &cobra.Command{
		Use:   "recover <keystore>",
		Short: "Check a keystore password and show the recovered address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read keystore: %w", err)
			}

			password, err := p.Secret("Backup password: ")
			if err != nil {
				return err
			}

			codec := eth.NewKeystoreCodec(0, 0)
			key, err := codec.DecryptContext(cmd.Context(), data, password)
			if err != nil {
				return err
			}
			kp := eth.NewKeyPair(key)
			defer kp.Zero()

			fmt.Fprintf(cmd.OutOrStdout(), "Recovered %s\n", kp.Address)
			return nil
		},
	}
}

func promptKeyPair(p prompter, withPassphrase bool) (*core.KeyPair, error) {
	phrase, err := p.Secret("Recovery phrase: ")
	if err != nil {
		return nil, err
	}

	var passphrase string
	if withPassphrase {
		if passphrase, err = p.Secret("Passphrase: "); err != nil {
			return nil, err
		}
	}

	return eth.KeyPairFromMnemonic(phrase, passphrase)
}

// writeBackup creates path with owner-only permissions. An existing empty
// file is reused; anything else is left untouched.
func writeBackup(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return fmt.Errorf("failed to stat %s: %w", path, statErr)
		}
		if !info.Mode().IsRegular() || info.Size() > 0 {
			return fmt.Errorf("refusing to overwrite %s", path)
		}
		if err := os.Chmod(path, 0o600); err != nil {
			return fmt.Errorf("failed to restrict permissions on %s: %w", path, err)
		}
		f, err = os.OpenFile(path, os.O_WRONLY, 0o600)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func printQR(w io.Writer, content string) error {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to encode QR code: %w", err)
	}
	fmt.Fprint(w, qr.ToSmallString(false))
	return nil
}
