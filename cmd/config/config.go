// SPDX-License-Identifier: Apache-2.0
package config

import (
	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/spf13/cobra"
)

// globalFlag switches set/unset from the store config to the user config
var globalFlag bool

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage strongbox configuration",
		Long: `Manage strongbox configuration settings.

Configuration precedence (highest to lowest):
  1. Command line flags
  2. Environment variables (STRONGBOX_*)
  3. Store config (./strongbox.yaml)
  4. User config (~/.config/strongbox/config.yaml)
  5. Defaults

By default, config commands operate on the store config in the current
directory. Use --global to operate on the user config instead. Keys that
affect whose key material is trusted (gpg.recipient, gpg.passphrase-file)
are only accepted in the user config.`,
		Example: `  # Store config, checked in next to the credentials
  strongbox config set store.path .
  strongbox config set gpg.key-length 3072

  # User config
  strongbox config set --global gpg.binary /usr/local/bin/gpg2
  strongbox config set --global gpg.timeout 30s

  # Inspect
  strongbox config get gpg.homedir
  strongbox config list`,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newUnsetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSchemaCmd())

	return cmd
}

// addGlobalFlag adds the --global flag to a command
func addGlobalFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&globalFlag, "global", false, "Operate on user config instead of store config")
}

// selectedScope returns the scope chosen by --global, with its name and file
func selectedScope() (config.ConfigScope, string, string) {
	if globalFlag {
		return config.ScopeUser, "user", "~/.config/strongbox/" + config.ConfigFileName + config.DefaultConfigExt
	}
	return config.ScopeStore, "store", config.LocalConfigFile + config.DefaultConfigExt
}
