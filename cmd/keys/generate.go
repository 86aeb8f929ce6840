// SPDX-License-Identifier: Apache-2.0
package keys

import (
	"context"
	"fmt"
	"os"

	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/passphrase"
	"github.com/Work-Fort/Strongbox/pkg/ui"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		length int
		dest   string
		source string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a key pair",
		Long: `Generate an RSA key pair in a throwaway keyring.

With --dest the public and secret material is written to DIR/.keys.
Without it the keyring is discarded and gpg's diagnostics are printed,
which is useful to check that key generation works.`,
		Example: `  strongbox keys generate --dest ./backup-store
  STRONGBOX_PASSPHRASE=secret strongbox keys generate --length 3072`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if length == 0 {
				length = config.GetKeyLength()
			}

			src, err := passphrase.ParseSource(source)
			if err != nil {
				return err
			}
			pass, err := passphrase.NewReader(false).Read(src, "Passphrase for the new key", true)
			if err != nil {
				return fmt.Errorf("passphrase required: use %s: %w", config.PassphraseEnv, err)
			}

			sess, err := cmdutil.NewSession(cmd.Context())
			if err != nil {
				return err
			}

			var output []byte
			generate := func(ctx context.Context) error {
				ctx, cancel := sess.Context(ctx)
				defer cancel()
				out, err := sess.KeyManager().Generate(ctx, pass, length, dest)
				output = out
				return err
			}

			if cmdutil.IsInteractive() {
				err = ui.RunWithSpinner(cmd.Context(), os.Stderr, fmt.Sprintf("Generating %d-bit key pair", length), generate)
			} else {
				err = generate(cmd.Context())
			}
			if err != nil {
				return err
			}

			if dest == "" {
				_, err := cmd.OutOrStdout().Write(output)
				return err
			}
			fmt.Println(config.CurrentTheme.SuccessMessage("Key pair written to " + dest))
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", 0, "RSA key length (default: gpg.key-length)")
	cmd.Flags().StringVar(&dest, "dest", "", "Directory to write the .keys file to")
	cmd.Flags().StringVar(&source, "passphrase-source", "auto", "Passphrase source: auto, env, stdin, tui")
	return cmd
}
