// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/Work-Fort/Strongbox/pkg/config"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all configuration values",
		Long: `List every configuration key with its effective value and source.

Output format: key = value (source)`,
		Example: `  strongbox config list
  # gpg.binary =  (default)
  # gpg.homedir = ~/.gnupg (default)
  # gpg.key-length = 3072 (from ./strongbox.yaml)
  # use-tui = false (from ENV: STRONGBOX_USE_TUI)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := config.ListConfigValues()
			if err != nil {
				return err
			}

			if len(values) == 0 {
				fmt.Println("No configuration set")
				return nil
			}

			for _, cv := range values {
				fmt.Printf("%s = %v (%s)\n", cv.Key, cv.Value, cv.Source)
			}

			fmt.Println("\n" + config.CurrentTheme.SubtleStyle().Render("Configuration precedence: ENV > store config > user config > defaults"))
			return nil
		},
	}
}
