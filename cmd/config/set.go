// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/spf13/cobra"
)

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set configuration value",
		Long: `Set a configuration key to a value.

Keys use dot notation (e.g., gpg.homedir). Values are validated against the
key's type and allowed range before the file is written.

Boolean values support natural language:
  - true:  true, yes, on, enable, enabled
  - false: false, no, off, disable, disabled`,
		Args: cobra.ExactArgs(2),
		Example: `  strongbox config set use-tui no
  strongbox config set log-level debug
  strongbox config set gpg.key-length 3072
  strongbox config set --global gpg.recipient 0123456789ABCDEF0123456789ABCDEF01234567`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			scope, scopeName, configFile := selectedScope()

			if err := config.SetConfigValue(key, value, scope); err != nil {
				return err
			}

			fmt.Printf("Set %s = %s (%s: %s)\n", key, value, scopeName, configFile)
			return nil
		},
	}

	addGlobalFlag(cmd)
	return cmd
}
