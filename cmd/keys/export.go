// SPDX-License-Identifier: Apache-2.0
package keys

import (
	"fmt"

	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/passphrase"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		secret  bool
		homedir string
		source  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export armored keys from a keyring",
		Long: `Export the armored public keys, or with --secret the secret keys, of a
keyring. The persistent keyring (gpg.homedir) is used unless --from names
another directory.

gpg 2.1 and later ask for the passphrase before releasing secret keys; it is
read the same way as for decrypt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cmdutil.NewSession(cmd.Context())
			if err != nil {
				return err
			}
			if homedir == "" {
				homedir = sess.Homedir()
			}

			ctx, cancel := sess.Context(cmd.Context())
			defer cancel()

			km := sess.KeyManager()
			var out []byte
			if secret && sess.Tool.NeedsLoopback() {
				src, err := passphrase.ParseSource(source)
				if err != nil {
					return err
				}
				pass, err := passphrase.NewReader(false).Read(src, "Passphrase of the secret key", false)
				if err != nil {
					return fmt.Errorf("passphrase required: use %s: %w", config.PassphraseEnv, err)
				}
				out, err = km.ExportSecret(ctx, homedir, pass)
				if err != nil {
					return err
				}
			} else {
				out, err = km.Export(ctx, homedir, secret)
				if err != nil {
					return err
				}
			}

			if len(out) == 0 {
				return fmt.Errorf("no keys exported from %s", homedir)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&secret, "secret", false, "Export secret keys")
	cmd.Flags().StringVar(&homedir, "from", "", "Keyring directory (default: gpg.homedir)")
	cmd.Flags().StringVar(&source, "passphrase-source", "auto", "Passphrase source: auto, env, stdin, tui")
	return cmd
}
