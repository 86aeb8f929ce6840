// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Get configuration value",
		Long: `Get a configuration value and show where it comes from: an environment
variable (STRONGBOX_*), the store config (./strongbox.yaml), the user config
(~/.config/strongbox/config.yaml) or the built-in default.`,
		Args: cobra.ExactArgs(1),
		Example: `  strongbox config get gpg.homedir
  # gpg.homedir = ~/.gnupg (default)

  STRONGBOX_GPG_TIMEOUT=1m strongbox config get gpg.timeout
  # gpg.timeout = 1m (from ENV: STRONGBOX_GPG_TIMEOUT)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cv, err := config.GetConfigValue(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s = %v (%s)\n", cv.Key, cv.Value, cv.Source)
			return nil
		},
	}
}
