// SPDX-License-Identifier: Apache-2.0
package keys

import (
	"context"
	"fmt"
	"os"

	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/keyfile"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var homedir string

	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import key material into a keyring",
		Long: `Import an armored key file into the persistent keyring (gpg.homedir) or
the directory given with --into. Without a path the store's .keys file is
imported, which is what encrypt and decrypt need after cloning a store onto a
new machine.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetKeysPath()
			if len(args) > 0 {
				path = args[0]
			}

			sess, err := cmdutil.NewSession(cmd.Context())
			if err != nil {
				return err
			}
			if homedir == "" {
				homedir = sess.Homedir()
			}

			summary, err := importKeyFile(cmd.Context(), sess, path, homedir)
			if err != nil {
				return err
			}

			theme := config.CurrentTheme
			fmt.Println(theme.SuccessMessage("Imported " + path))
			if summary != nil {
				fmt.Println(theme.SubtleStyle().Render("  fingerprint " + summary.Fingerprint()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&homedir, "into", "", "Keyring directory (default: gpg.homedir)")
	return cmd
}

// importKeyFile imports path into homedir. Store key files are validated
// first; other files are handed to gpg as they are and yield a nil summary.
func importKeyFile(ctx context.Context, sess *cmdutil.Session, path, homedir string) (*keyfile.Summary, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}

	summary, err := keyfile.Load(path)
	if err != nil {
		if path == config.GetKeysPath() {
			return nil, err
		}
		summary = nil
	}

	if err := os.MkdirAll(homedir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keyring %s: %w", homedir, err)
	}

	ctx, cancel := sess.Context(ctx)
	defer cancel()
	if _, err := sess.KeyManager().Import(ctx, homedir, path); err != nil {
		return nil, err
	}
	return summary, nil
}
