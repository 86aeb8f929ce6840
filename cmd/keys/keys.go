// SPDX-License-Identifier: Apache-2.0
package keys

import (
	"github.com/spf13/cobra"
)

// NewKeysCmd creates the keys command and its subcommands
func NewKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage store key material",
		Long: `Manage the key pair of the credential store.

The store's key pair lives in <store>/.keys as an armored public block
followed by the armored secret block. These commands generate, inspect,
move and back up that material.`,
	}

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newRecipientCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newBackupCmd())
	cmd.AddCommand(newRestoreCmd())

	return cmd
}
