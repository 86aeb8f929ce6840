// SPDX-License-Identifier: Apache-2.0
package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Work-Fort/Strongbox/cmd/cmdutil"
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/Work-Fort/Strongbox/pkg/keyfile"
	"github.com/Work-Fort/Strongbox/pkg/ui"
	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the store key file",
		Long: `Validate the store's .keys file and write it xz-compressed, with a
SHA256SUMS manifest, to a new timestamped directory under backup.location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if location == "" {
				location = config.GetBackupLocation()
			}

			dir, err := keyfile.Backup(config.GetKeysPath(), location, time.Now())
			if err != nil {
				return err
			}

			cmdutil.PrintList(os.Stdout, "Key file backed up", []string{
				filepath.Join(dir, keyfile.ArchiveName),
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "Backup root directory (default: backup.location)")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var (
		force    bool
		noImport bool
	)

	cmd := &cobra.Command{
		Use:   "restore <backup>",
		Short: "Restore the store key file from a backup",
		Long: `Restore <store>/.keys from a backup directory (or the keys.xz inside it).

The archive is verified against its SHA256SUMS manifest and the decompressed
key file is validated before it replaces anything. An existing .keys file is
only replaced with --force, or after typing the store path in a terminal.
The restored key pair is imported into the persistent keyring unless
--no-import is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive := args[0]
			if info, err := os.Stat(archive); err == nil && info.IsDir() {
				archive = filepath.Join(archive, keyfile.ArchiveName)
			}

			keysPath := config.GetKeysPath()
			if _, err := os.Stat(keysPath); err == nil && !force && cmdutil.IsInteractive() {
				theme := config.CurrentTheme
				ok, err := ui.NewPrompter().TypedConfirm(
					theme.WarningIndicator()+"  "+keysPath+" will be replaced. Type the store path to confirm:",
					config.GetStorePath(),
				)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("operation cancelled")
				}
				force = true
			}

			summary, err := keyfile.Restore(archive, keysPath, force)
			if err != nil {
				return err
			}

			items := []string{keysPath, "fingerprint " + summary.Fingerprint()}
			if !noImport {
				sess, err := cmdutil.NewSession(cmd.Context())
				if err != nil {
					return err
				}
				if _, err := importKeyFile(cmd.Context(), sess, keysPath, sess.Homedir()); err != nil {
					return err
				}
				items = append(items, "imported into "+sess.Homedir())
			}

			cmdutil.PrintList(os.Stdout, "Key file restored", items)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing .keys file")
	cmd.Flags().BoolVar(&noImport, "no-import", false, "Do not import the key pair into the persistent keyring")
	return cmd
}
