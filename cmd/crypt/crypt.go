// SPDX-License-Identifier: Apache-2.0
package crypt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/gpg"
	"github.com/Work-Fort/Strongbox/pkg/passphrase"
	"github.com/spf13/cobra"
)

// NewEncryptCmd creates the encrypt command
func NewEncryptCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "encrypt [file]",
		Short: "Encrypt data for the store key",
		Long: `Encrypt a file, or stdin when no file is given, for the store's recipient.

The recipient is resolved in order: --recipient / gpg.recipient, the default
key of <store>/.keys, then the default key of the persistent keyring. The
armored ciphertext is written to stdout or --output.`,
		Example: `  echo -n "hunter2" | strongbox encrypt > github.asc
  strongbox encrypt notes.txt -o notes.asc`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plaintext, err := cmdutil.ReadInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			sess, err := cmdutil.NewSession(cmd.Context())
			if err != nil {
				return err
			}

			ciphertext, err := encrypt(cmd.Context(), sess, plaintext)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, ciphertext)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

// NewDecryptCmd creates the decrypt command
func NewDecryptCmd() *cobra.Command {
	var (
		output string
		source string
	)

	cmd := &cobra.Command{
		Use:   "decrypt [file]",
		Short: "Decrypt data with the store key",
		Long: `Decrypt a file, or stdin when no file is given, with the store's secret key.

The passphrase is read from STRONGBOX_PASSPHRASE, from stdin when the
ciphertext comes from a file, or prompted for in a terminal.

Note: gpg receives the passphrase on its command line unless
gpg.passphrase-file is enabled in the user config.`,
		Example: `  strongbox decrypt github.asc
  STRONGBOX_PASSPHRASE=secret strongbox decrypt < github.asc
  echo secret | strongbox decrypt github.asc --passphrase-source stdin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := passphrase.ParseSource(source)
			if err != nil {
				return err
			}

			ciphertext, err := cmdutil.ReadInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			stdinBusy := len(args) == 0 || args[0] == "-"
			pass, err := passphrase.NewReader(stdinBusy).Read(src, "Store passphrase", false)
			if err != nil {
				return fmt.Errorf("passphrase required: use %s: %w", config.PassphraseEnv, err)
			}

			sess, err := cmdutil.NewSession(cmd.Context())
			if err != nil {
				return err
			}

			plaintext, err := decrypt(cmd.Context(), sess, ciphertext, pass)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, plaintext)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&source, "passphrase-source", "auto", "Passphrase source: auto, env, stdin, tui")
	return cmd
}

// encrypt runs the adapter and treats empty output as failure
func encrypt(ctx context.Context, sess *cmdutil.Session, plaintext []byte) ([]byte, error) {
	ctx, cancel := sess.Context(ctx)
	defer cancel()

	adapter := sess.Adapter()
	out, err := adapter.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		log.Debug("Encrypt produced no output", "adapter", adapter.String())
		return nil, noOutputError(ctx, adapter, "encryption", false)
	}
	return out, nil
}

// decrypt runs the adapter and treats empty output as failure
func decrypt(ctx context.Context, sess *cmdutil.Session, ciphertext []byte, pass string) ([]byte, error) {
	if len(bytes.TrimSpace(ciphertext)) == 0 {
		return nil, fmt.Errorf("no ciphertext to decrypt")
	}

	ctx, cancel := sess.Context(ctx)
	defer cancel()

	adapter := sess.Adapter()
	out, err := adapter.Decrypt(ctx, ciphertext, pass)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		log.Debug("Decrypt produced no output", "adapter", adapter.String())
		return nil, noOutputError(ctx, adapter, "decryption", true)
	}
	return out, nil
}

// noOutputError explains an empty result, distinguishing a missing
// recipient from a tool failure
func noOutputError(ctx context.Context, adapter *gpg.Adapter, op string, secret bool) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s aborted: %w", op, ctx.Err())
	}
	recipient, err := adapter.Resolver().Resolve(ctx, secret)
	if err == nil && recipient == "" {
		return fmt.Errorf("%s failed: %w (run 'strongbox init' or set gpg.recipient)", op, gpg.ErrRecipientNotFound)
	}
	return fmt.Errorf("%s failed: gpg produced no output (see %s)", op, config.GlobalPaths.LogFile)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
