// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/spf13/cobra"
)

func newUnsetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset [key]",
		Short: "Remove configuration value",
		Long: `Remove a configuration key from the store or user config file.

Unsetting a parent key (e.g., gpg) removes all of its children. Environment
variables and defaults still apply afterwards.`,
		Args: cobra.ExactArgs(1),
		Example: `  strongbox config unset gpg.key-length
  strongbox config unset --global gpg.timeout
  strongbox config unset --global gpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			scope, scopeName, configFile := selectedScope()

			if err := config.UnsetConfigValue(key, scope); err != nil {
				return err
			}

			fmt.Printf("Removed %s from %s config (%s)\n", key, scopeName, configFile)
			return nil
		},
	}

	addGlobalFlag(cmd)
	return cmd
}
